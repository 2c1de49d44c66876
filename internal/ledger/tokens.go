package ledger

import (
	"fmt"
	"math"
)

type asset struct {
	owner       Identity
	approved    Identity
	ownedIndex  int
	globalIndex int
}

// ownershipLedger tracks owners plus two dense indexes: owner buckets and the
// global supply array. Removal swaps the last element into the hole.
type ownershipLedger struct {
	assets    map[uint64]*asset
	owned     map[Identity][]uint64
	all       []uint64
	operators map[Identity]map[Identity]struct{}
	nextID    uint64
}

func newOwnershipLedger() *ownershipLedger {
	return &ownershipLedger{
		assets:    make(map[uint64]*asset),
		owned:     make(map[Identity][]uint64),
		operators: make(map[Identity]map[Identity]struct{}),
		nextID:    1,
	}
}

func (l *ownershipLedger) lookup(id uint64) (*asset, error) {
	a, ok := l.assets[id]
	if !ok {
		return nil, invalidToken(id)
	}
	return a, nil
}

func (l *ownershipLedger) isOperator(owner, operator Identity) bool {
	ops, ok := l.operators[owner]
	if !ok {
		return false
	}
	_, ok = ops[operator]
	return ok
}

// canManage reports whether caller may act on the asset: owner, approved
// operator or approved-for-all operator of the owner.
func (l *ownershipLedger) canManage(caller Identity, a *asset) bool {
	if caller == a.owner {
		return true
	}
	if !isZero(a.approved) && caller == a.approved {
		return true
	}
	return l.isOperator(a.owner, caller)
}

func (l *ownershipLedger) mint(id uint64, to Identity) error {
	if _, exists := l.assets[id]; exists {
		return fmt.Errorf("ledger: token %d already minted", id)
	}
	if id != l.nextID {
		return fmt.Errorf("ledger: token %d minted out of order, next id is %d", id, l.nextID)
	}
	if id == math.MaxUint64 {
		return fmt.Errorf("%w: token id space exhausted", ErrArithmeticOverflow)
	}
	bucket := l.owned[to]
	l.assets[id] = &asset{owner: to, ownedIndex: len(bucket), globalIndex: len(l.all)}
	l.owned[to] = append(bucket, id)
	l.all = append(l.all, id)
	l.nextID = id + 1
	return nil
}

func (l *ownershipLedger) burn(id uint64) error {
	a, err := l.lookup(id)
	if err != nil {
		return err
	}
	l.detachOwner(id, a)
	last := len(l.all) - 1
	moved := l.all[last]
	l.all[a.globalIndex] = moved
	l.assets[moved].globalIndex = a.globalIndex
	l.all = l.all[:last]
	delete(l.assets, id)
	return nil
}

func (l *ownershipLedger) transfer(id uint64, to Identity) error {
	a, err := l.lookup(id)
	if err != nil {
		return err
	}
	l.detachOwner(id, a)
	bucket := l.owned[to]
	a.owner = to
	a.approved = ZeroIdentity
	a.ownedIndex = len(bucket)
	l.owned[to] = append(bucket, id)
	return nil
}

func (l *ownershipLedger) detachOwner(id uint64, a *asset) {
	bucket := l.owned[a.owner]
	last := len(bucket) - 1
	moved := bucket[last]
	bucket[a.ownedIndex] = moved
	l.assets[moved].ownedIndex = a.ownedIndex
	bucket = bucket[:last]
	if len(bucket) == 0 {
		delete(l.owned, a.owner)
	} else {
		l.owned[a.owner] = bucket
	}
	a.approved = ZeroIdentity
}

func (l *ownershipLedger) approve(id uint64, operator Identity) error {
	a, err := l.lookup(id)
	if err != nil {
		return err
	}
	a.approved = operator
	return nil
}

func (l *ownershipLedger) setOperator(owner, operator Identity, approved bool) {
	ops, ok := l.operators[owner]
	if !approved {
		if ok {
			delete(ops, operator)
			if len(ops) == 0 {
				delete(l.operators, owner)
			}
		}
		return
	}
	if !ok {
		ops = make(map[Identity]struct{})
		l.operators[owner] = ops
	}
	ops[operator] = struct{}{}
}

// check verifies that the primary map and both dense indexes agree.
func (l *ownershipLedger) check() error {
	if len(l.all) != len(l.assets) {
		return fmt.Errorf("ledger: supply index has %d entries, %d assets live", len(l.all), len(l.assets))
	}
	for i, id := range l.all {
		a, ok := l.assets[id]
		if !ok {
			return fmt.Errorf("ledger: supply index %d references missing token %d", i, id)
		}
		if a.globalIndex != i {
			return fmt.Errorf("ledger: token %d global index %d, stored at %d", id, a.globalIndex, i)
		}
		if id >= l.nextID {
			return fmt.Errorf("ledger: token %d not below next id %d", id, l.nextID)
		}
	}
	counted := 0
	for owner, bucket := range l.owned {
		if len(bucket) == 0 {
			return fmt.Errorf("ledger: empty bucket kept for %s", owner.Hex())
		}
		for i, id := range bucket {
			a, ok := l.assets[id]
			if !ok {
				return fmt.Errorf("ledger: owner %s lists missing token %d", owner.Hex(), id)
			}
			if a.owner != owner || a.ownedIndex != i {
				return fmt.Errorf("ledger: token %d owner index mismatch", id)
			}
		}
		counted += len(bucket)
	}
	if counted != len(l.assets) {
		return fmt.Errorf("ledger: owner buckets hold %d tokens, %d assets live", counted, len(l.assets))
	}
	return nil
}
