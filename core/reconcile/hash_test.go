package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashDeterminism(t *testing.T) {
	// Maps iterate in random order, so hashing the same logical record many
	// times exercises arbitrary insertion orders.
	base := Record{"id": "1", "name": "Acme", "amount": 1200.50, "active": true}
	want := Hash(base)
	for i := 0; i < 50; i++ {
		permuted := Record{"active": true, "amount": 1200.50, "name": "Acme", "id": "1"}
		assert.Equal(t, want, Hash(permuted))
	}
}

func TestHashSensitivity(t *testing.T) {
	rec := Record{"id": "1", "name": "Acme", "stage": "open"}

	t.Run("changing a hashed field changes the hash", func(t *testing.T) {
		changed := rec.Clone()
		changed["name"] = "Acme Corp"
		assert.NotEqual(t, Hash(rec), Hash(changed))
	})

	t.Run("changing an unhashed field does not", func(t *testing.T) {
		changed := rec.Clone()
		changed["stage"] = "won"
		assert.Equal(t, Hash(rec, "id", "name"), Hash(changed, "id", "name"))
	})

	t.Run("missing is distinct from empty and null", func(t *testing.T) {
		missing := Record{"id": "1"}
		empty := Record{"id": "1", "name": ""}
		null := Record{"id": "1", "name": nil}
		fields := []string{"id", "name"}
		assert.NotEqual(t, Hash(missing, fields...), Hash(empty, fields...))
		assert.NotEqual(t, Hash(missing, fields...), Hash(null, fields...))
		assert.NotEqual(t, Hash(empty, fields...), Hash(null, fields...))
	})

	t.Run("field subset ignores other fields", func(t *testing.T) {
		a := Record{"id": "1", "name": "Acme", "noise": "x"}
		b := Record{"id": "1", "name": "Acme", "noise": "y"}
		assert.Equal(t, Hash(a, "id", "name"), Hash(b, "id", "name"))
	})
}

func TestClassify(t *testing.T) {
	unchanged := Record{"id": "1", "name": "Acme"}
	modified := Record{"id": "2", "name": "Beta v2"}
	added := Record{"id": "3", "name": "Gamma"}

	baseline := Baseline{
		"1": Hash(unchanged),
		"2": Hash(Record{"id": "2", "name": "Beta"}),
	}

	cs := Classify([]Record{unchanged, modified, added}, baseline, "id")
	assert.Equal(t, []Record{added}, cs.Added)
	assert.Equal(t, []Record{modified}, cs.Modified)
	assert.Equal(t, []Record{unchanged}, cs.Unchanged)
}

func TestClassifyRecordWithoutIdentity(t *testing.T) {
	cs := Classify([]Record{{"name": "anonymous"}}, Baseline{}, "id")
	assert.Len(t, cs.Added, 1)
	assert.Empty(t, cs.Modified)
	assert.Empty(t, cs.Unchanged)
}

func TestFingerprints(t *testing.T) {
	records := []Record{
		{"id": "1", "name": "Acme"},
		{"name": "no identity"},
	}
	fp := Fingerprints(records, "id")
	assert.Len(t, fp, 1)
	assert.Equal(t, Hash(records[0]), fp["1"])
}
