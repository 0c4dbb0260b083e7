package plink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAllelePair_Canonical(t *testing.T) {
	tests := []struct {
		name          string
		a1, a2        string
		first, second string
	}{
		{"alphabetical", "G", "A", "A", "G"},
		{"already ordered", "A", "G", "A", "G"},
		{"lowercase", "t", "c", "C", "T"},
		{"shorter first", "TCC", "T", "T", "TCC"},
		{"length beats alphabet", "AA", "T", "T", "AA"},
		{"identical", "A", "A", "A", "A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewAllelePair(tt.a1, tt.a2)
			assert.Equal(t, tt.first, p.First())
			assert.Equal(t, tt.second, p.Second())
			assert.Equal(t, p, NewAllelePair(tt.a2, tt.a1))
		})
	}
}

func TestAllelePair_Index(t *testing.T) {
	p := NewAllelePair("G", "a")

	idx, ok := p.Index("A")
	require.True(t, ok)
	assert.Equal(t, 0, idx)

	idx, ok = p.Index("g")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	_, ok = p.Index("T")
	assert.False(t, ok)
}

func TestComplement(t *testing.T) {
	assert.Equal(t, "CAGCATGNNNX", Complement("GTCGTACNNNX"))
	assert.Equal(t, "", Complement(""))
}

func TestVariant_AllelesAmbiguous(t *testing.T) {
	tests := []struct {
		a1, a2 string
		want   bool
	}{
		{"G", "C", true},
		{"C", "G", true},
		{"A", "T", true},
		{"t", "a", true},
		{"T", "G", false},
		{"A", "C", false},
		{"AT", "T", false},
		{"A", "A", false},
	}

	for _, tt := range tests {
		t.Run(tt.a1+"/"+tt.a2, func(t *testing.T) {
			v := NewVariant("", "1", 1, tt.a1, tt.a2)
			assert.Equal(t, tt.want, v.AllelesAmbiguous())
		})
	}
}

func TestVariant_EqualStrandFlip(t *testing.T) {
	v1 := NewVariant("rs12345", "1", 12345, "G", "C")
	v2 := NewVariant("rs12345", "1", 12345, "C", "G")
	assert.True(t, v1.Equal(v2))
	assert.Equal(t, v1.Hash(), v2.Hash())

	// A/G on the forward strand is T/C on the reverse strand.
	fwd := NewVariant("rs1", "2", 100, "A", "G")
	rev := NewVariant("rs1_rev", "2", 100, "T", "C")
	assert.True(t, fwd.Equal(rev))
	assert.True(t, rev.Equal(fwd))
	assert.Equal(t, fwd.Key(), rev.Key())
	assert.Equal(t, fwd.Hash(), rev.Hash())
}

func TestVariant_NotEqual(t *testing.T) {
	v := NewVariant("rs9471841", "15", 9414141, "T", "G")

	tests := []struct {
		name  string
		other Variant
	}{
		{"different position", NewVariant("rs9471841", "15", 9414142, "T", "G")},
		{"different chromosome", NewVariant("rs9471841", "16", 9414141, "T", "G")},
		{"different alleles", NewVariant("rs9471841", "15", 9414141, "T", "C")},
		{"indel", NewVariant("rs9471841", "15", 9414141, "T", "TG")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, v.Equal(tt.other))
			assert.NotEqual(t, v.Key(), tt.other.Key())
		})
	}
}

func TestVariant_NameIgnored(t *testing.T) {
	v1 := NewVariant("rs1", "3", 5, "A", "C")
	v2 := NewVariant("other", "3", 5, "A", "C")
	assert.True(t, v1.Equal(v2))
	assert.Equal(t, v1.Hash(), v2.Hash())
}

func TestVariant_ComplementPreservesEquality(t *testing.T) {
	variants := []Variant{
		NewVariant("rs12345", "1", 12345, "G", "C"),
		NewVariant("rs9471841", "15", 9414141, "T", "G"),
		NewVariant("rs841719831", "20", 519731741, "T", "TCC"),
		NewVariant("", "X", 1, "N", "-"),
	}

	for _, v := range variants {
		c := v.Complement()
		assert.True(t, v.Equal(c), "%s != %s", v, c)
		assert.True(t, c.Equal(v))
		assert.Equal(t, v.Hash(), c.Hash())
		assert.True(t, v.Equal(c.Complement()))
	}
}

func TestVariant_ComplementIndel(t *testing.T) {
	v := NewVariant("rs841719831", "20", 519731741, "T", "TCC")
	c := v.Complement()

	assert.Equal(t, "A", c.Alleles.First())
	assert.Equal(t, "AGG", c.Alleles.Second())

	// The receiver is unchanged.
	assert.Equal(t, "T", v.Alleles.First())
	assert.Equal(t, "TCC", v.Alleles.Second())
}

func TestVariant_MapKey(t *testing.T) {
	seen := map[string]Variant{}
	v := NewVariant("rs1", "1", 10, "A", "G")
	seen[v.Key()] = v

	_, ok := seen[NewVariant("", "1", 10, "T", "C").Key()]
	assert.True(t, ok)

	_, ok = seen[NewVariant("", "1", 10, "A", "C").Key()]
	assert.False(t, ok)
}

func TestVariant_String(t *testing.T) {
	v := NewVariant("rs12345", "1", 12345, "G", "C")
	assert.Equal(t, "<Variant chr1:12345_(C, G)>", v.String())
}
