package topo

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOptodeRoster(t *testing.T) {
	wantNames := []string{"0", "1", "2", "3", "A", "B", "C"}
	for i := 1; i <= OptodesPerTile; i++ {
		desc, err := Optode(i)
		require.NoError(t, err)
		require.Equal(t, wantNames[i-1], desc.Name)
		if i <= 4 {
			require.Equal(t, RoleDetector, desc.Role)
		} else {
			require.Equal(t, RoleSource, desc.Role)
		}
	}
}

func TestOptodeOutOfRange(t *testing.T) {
	for _, idx := range []int{0, 8, -1, 100} {
		_, err := Optode(idx)
		require.ErrorIs(t, err, ErrBadOptodeIndex, "index %d", idx)
	}
}

func TestSourceBijection(t *testing.T) {
	ids := []int64{0x01, 0x02, 0x04, 0x08, 0x10, 0x20}

	seenLocal := map[int]bool{}
	seenPair := map[[2]int]bool{} // (optode, wavelength slot)
	for _, id := range ids {
		desc, err := Source(id)
		require.NoError(t, err)
		require.GreaterOrEqual(t, desc.LocalIndex, 1)
		require.LessOrEqual(t, desc.LocalIndex, SourcesPerTile)
		require.Contains(t, []float64{735, 850}, desc.WavelengthNm)
		require.Equal(t, desc.WavelengthNm, Wavelengths[desc.WavelengthSlot-1])
		require.GreaterOrEqual(t, desc.OptodeIndex, 5)
		require.LessOrEqual(t, desc.OptodeIndex, 7)
		require.NotEmpty(t, desc.Description)

		require.False(t, seenLocal[desc.LocalIndex], "duplicate local index %d", desc.LocalIndex)
		seenLocal[desc.LocalIndex] = true

		pair := [2]int{desc.OptodeIndex, desc.WavelengthSlot}
		require.False(t, seenPair[pair], "duplicate (optode, wavelength) pair %v", pair)
		seenPair[pair] = true
	}
	require.Len(t, seenLocal, SourcesPerTile)
}

func TestSourceUnknownID(t *testing.T) {
	for _, id := range []int64{0, 0x03, 0x40, 0xFF, -1} {
		_, err := Source(id)
		require.ErrorIs(t, err, ErrUnknownSourceID, "id %#x", id)
	}
}

func TestDetectorBijection(t *testing.T) {
	ids := []int64{0x01, 0x02, 0x04, 0x08}

	seenLocal := map[int]bool{}
	for _, id := range ids {
		desc, err := Detector(id)
		require.NoError(t, err)
		require.GreaterOrEqual(t, desc.LocalIndex, 1)
		require.LessOrEqual(t, desc.LocalIndex, DetectorsPerTile)
		require.GreaterOrEqual(t, desc.OptodeIndex, 1)
		require.LessOrEqual(t, desc.OptodeIndex, 4)

		require.False(t, seenLocal[desc.LocalIndex])
		seenLocal[desc.LocalIndex] = true
	}
	require.Len(t, seenLocal, DetectorsPerTile)
}

func TestDetectorUnknownID(t *testing.T) {
	for _, id := range []int64{0, 0x10, 0x03, -1} {
		_, err := Detector(id)
		require.ErrorIs(t, err, ErrUnknownDetectorID, "id %#x", id)
	}
}

// The union of source- and detector-owning optode indices must be exactly
// 1..7 with no overlap; the enumeration builder relies on this.
func TestOptodeCoverage(t *testing.T) {
	var covered [OptodesPerTile + 1]int
	for _, id := range []int64{0x01, 0x02, 0x04, 0x08, 0x10, 0x20} {
		desc, err := Source(id)
		require.NoError(t, err)
		covered[desc.OptodeIndex]++
	}
	for _, id := range []int64{0x01, 0x02, 0x04, 0x08} {
		desc, err := Detector(id)
		require.NoError(t, err)
		covered[desc.OptodeIndex] += WavelengthCount
	}
	for i := 1; i <= OptodesPerTile; i++ {
		require.Equal(t, WavelengthCount, covered[i], "optode %d", i)
	}
}
