// Package intensity decodes the binary intensity chunk stream into one
// contiguous channel-major matrix.
//
// The stream is split across one or more chunk files, each covering a
// contiguous range of frames. Chunks are processed strictly in chronological
// order, one at a time; any header violation aborts the whole decode with no
// partial result.
package intensity

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/pkg/errors"
)

/*
Chunk header layout (little-endian, 48 bytes):

Offset  Size  Description
0       1     Magic (0x92)
1       3     Version triple
4       4     Reserved
8       8     Channel count
16      8     Frame count of this chunk
24      20    Reserved
44      1     Not-final flag (0 = terminal chunk of the stream)
45      1     Endianness flag (nonzero = big-endian payload)
46      2     Reserved
48      ...   Payload: channelCount x frameCount float32, channel-major
*/

// Magic is the chunk header sentinel byte.
const Magic = 0x92

// HeaderSize is the fixed chunk header size in bytes.
const HeaderSize = 48

// Recognized chunk format versions.
var recognizedVersions = [][3]byte{
	{1, 0, 0},
	{1, 1, 0},
}

// Errors returned by the stream decoder. Each aborts the whole decode.
var (
	ErrBadMagic             = errors.New("bad intensity chunk magic")
	ErrUnsupportedVersion   = errors.New("unsupported intensity chunk version")
	ErrChannelCountMismatch = errors.New("chunk channel count does not match enumeration")
	ErrBigEndian            = errors.New("big-endian intensity payload not supported")
	ErrFinality             = errors.New("chunk finality flag violates stream order")
	ErrFrameOverflow        = errors.New("chunk frames exceed declared recording length")
)

// Header is the decoded chunk header.
type Header struct {
	Version      [3]byte
	ChannelCount uint64
	FrameCount   uint64
	Final        bool // this chunk is the terminal chunk of the stream
	BigEndian    bool
}

// ReadHeader reads and validates one chunk header. Magic, version, and
// endianness violations are reported here; count and finality checks need
// stream context and are left to the caller.
func ReadHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, "reading chunk header")
	}

	if buf[0] != Magic {
		return nil, errors.Wrapf(ErrBadMagic, "got 0x%02x, want 0x%02x", buf[0], Magic)
	}

	h := &Header{}
	copy(h.Version[:], buf[1:4])
	if !versionRecognized(h.Version) {
		return nil, errors.Wrapf(ErrUnsupportedVersion, "version %d.%d.%d",
			h.Version[0], h.Version[1], h.Version[2])
	}

	h.ChannelCount = binary.LittleEndian.Uint64(buf[8:16])
	h.FrameCount = binary.LittleEndian.Uint64(buf[16:24])

	// The flag stores "more chunks follow"; a zero byte marks the terminal
	// chunk.
	h.Final = buf[44] == 0
	h.BigEndian = buf[45] != 0
	if h.BigEndian {
		return nil, errors.Wrap(ErrBigEndian, "endianness flag set")
	}

	return h, nil
}

func versionRecognized(v [3]byte) bool {
	for _, r := range recognizedVersions {
		if v == r {
			return true
		}
	}
	return false
}

// DecodeStream reads the chunk files in order and assembles one channel-major
// channels x frames matrix. It returns the matrix and the number of frames
// actually filled, which may fall short of frames when the stream is
// truncated; trailing columns are left zero. Any violation aborts the decode.
func DecodeStream(paths []string, channels, frames int) ([]float32, int, error) {
	dst := make([]float32, channels*frames)

	offset := 0
	for i, path := range paths {
		n, err := decodeChunk(path, dst, channels, frames, offset, i == len(paths)-1)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "chunk %s", path)
		}
		offset += n
	}

	return dst, offset, nil
}

// decodeChunk validates one chunk against the stream position and copies its
// payload into dst at columns [offset, offset+n). Returns n, the number of
// frames the chunk carried.
func decodeChunk(path string, dst []float32, channels, frames, offset int, last bool) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "opening chunk")
	}
	defer f.Close()

	h, err := ReadHeader(f)
	if err != nil {
		return 0, err
	}

	if h.ChannelCount != uint64(channels) {
		return 0, errors.Wrapf(ErrChannelCountMismatch, "got %d, want %d", h.ChannelCount, channels)
	}
	if h.Final != last {
		if h.Final {
			return 0, errors.Wrap(ErrFinality, "terminal chunk before end of stream")
		}
		return 0, errors.Wrap(ErrFinality, "last chunk not marked terminal")
	}
	if h.FrameCount > uint64(frames-offset) {
		return 0, errors.Wrapf(ErrFrameOverflow, "%d frames at offset %d exceed total %d",
			h.FrameCount, offset, frames)
	}

	n := int(h.FrameCount)
	if err := readPayload(f, dst, channels, frames, offset, n); err != nil {
		return 0, errors.Wrap(err, "reading payload")
	}
	return n, nil
}

// readPayload copies a channel-major payload of n frames into dst, which is
// a channel-major channels x frames matrix.
func readPayload(r io.Reader, dst []float32, channels, frames, offset, n int) error {
	raw := make([]byte, n*4)
	for c := 0; c < channels; c++ {
		if _, err := io.ReadFull(r, raw); err != nil {
			return err
		}
		row := dst[c*frames+offset : c*frames+offset+n]
		for j := range row {
			row[j] = math.Float32frombits(binary.LittleEndian.Uint32(raw[j*4:]))
		}
	}
	return nil
}
