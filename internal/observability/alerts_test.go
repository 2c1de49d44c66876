package observability

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type alertRule struct {
	Alert       string            `yaml:"alert"`
	Expr        string            `yaml:"expr"`
	For         string            `yaml:"for"`
	Labels      map[string]string `yaml:"labels"`
	Annotations map[string]string `yaml:"annotations"`
}

type alertGroup struct {
	Name  string      `yaml:"name"`
	Rules []alertRule `yaml:"rules"`
}

type alertSpec struct {
	Groups []alertGroup `yaml:"groups"`
}

var metricRef = regexp.MustCompile(`registry_[a-z_]+`)

func TestRegistryAlertRules(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "deploy", "prometheus", "alerts", "registry.yml"))
	require.NoError(t, err)

	var spec alertSpec
	require.NoError(t, yaml.Unmarshal(data, &spec))
	require.Len(t, spec.Groups, 1)
	require.Equal(t, "registry", spec.Groups[0].Name)

	exported := exportedNames(t)
	expected := map[string]string{
		"RegistryHighErrorRate":         "critical",
		"RegistryHighLatency":           "warning",
		"RegistryIntegrityCheckFailing": "critical",
	}
	rules := spec.Groups[0].Rules
	require.Len(t, rules, len(expected))
	for _, rule := range rules {
		severity, ok := expected[rule.Alert]
		require.True(t, ok, "unexpected rule %q", rule.Alert)
		require.Equal(t, severity, rule.Labels["severity"], rule.Alert)
		require.NotEmpty(t, rule.Annotations["summary"], rule.Alert)
		require.NotEmpty(t, rule.Annotations["description"], rule.Alert)
		require.NotEmpty(t, rule.Annotations["runbook"], rule.Alert)
		_, err := time.ParseDuration(rule.For)
		require.NoError(t, err, rule.Alert)

		for _, ref := range metricRef.FindAllString(rule.Expr, -1) {
			require.Contains(t, exported, ref, "%s references unknown metric", rule.Alert)
		}
	}
}

// exportedNames lists every series name the process exposes, including the
// histogram suffixes.
func exportedNames(t *testing.T) map[string]struct{} {
	t.Helper()
	m := NewMetrics()
	m.ObserveCommand("mint", "error", time.Millisecond)
	_ = m.Jobs().Track("registry_integrity").End(errors.New("diverged"))
	m.Jobs().AddItems("registry_integrity", 1)

	families, err := m.registry.Gather()
	require.NoError(t, err)
	names := make(map[string]struct{})
	for _, mf := range families {
		names[mf.GetName()] = struct{}{}
		for _, suffix := range []string{"_bucket", "_sum", "_count"} {
			names[mf.GetName()+suffix] = struct{}{}
		}
	}
	return names
}
