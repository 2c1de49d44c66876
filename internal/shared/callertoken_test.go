package shared

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestCallerTokensRoundTrip(t *testing.T) {
	tokens := NewCallerTokens("secret")
	caller := common.HexToAddress("0x00000000000000000000000000000000000000a1")

	token, err := tokens.Issue(caller, time.Hour)
	require.NoError(t, err)

	got, err := tokens.Verify(token)
	require.NoError(t, err)
	require.Equal(t, caller, got)
}

func TestCallerTokensRejectTampering(t *testing.T) {
	tokens := NewCallerTokens("secret")
	token, err := tokens.Issue(common.HexToAddress("0x01"), time.Hour)
	require.NoError(t, err)

	_, err = NewCallerTokens("other").Verify(token)
	require.ErrorIs(t, err, ErrCallerTokenInvalid)

	_, err = tokens.Verify("not-a-token")
	require.ErrorIs(t, err, ErrCallerTokenInvalid)

	_, err = tokens.Verify("")
	require.ErrorIs(t, err, ErrCallerTokenMissing)
}

func TestCallerTokensExpire(t *testing.T) {
	tokens := NewCallerTokens("secret")
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issued }
	token, err := tokens.Issue(common.HexToAddress("0x01"), time.Minute)
	require.NoError(t, err)

	tokens.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = tokens.Verify(token)
	require.ErrorIs(t, err, ErrCallerTokenExpired)

	_, err = tokens.Issue(common.HexToAddress("0x01"), 0)
	require.Error(t, err)
}
