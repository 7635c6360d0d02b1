package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"hash"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/t2bot/data-package-repo/common"
	"github.com/zeebo/blake3"
	"golang.org/x/crypto/sha3"
)

const DefaultChunkSize = 1024 * 1024 // 1mb

var algorithms = map[string]func() hash.Hash{
	"MD5":      md5.New,
	"SHA-1":    sha1.New,
	"SHA-256":  sha256.New,
	"SHA-384":  sha512.New384,
	"SHA-512":  sha512.New,
	"SHA3-256": sha3.New256,
	"BLAKE3":   func() hash.Hash { return blake3.New() },
}

// Normalize maps an algorithm name onto its canonical form, eg "sha1" to "SHA-1".
func Normalize(alg string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(alg))
	if _, ok := algorithms[upper]; ok {
		return upper, nil
	}
	squashed := strings.ReplaceAll(upper, "-", "")
	for name := range algorithms {
		if strings.ReplaceAll(name, "-", "") == squashed {
			return name, nil
		}
	}
	return "", errors.Wrap(common.ErrUnsupportedAlgorithm, alg)
}

func Supported() []string {
	names := make([]string, 0, len(algorithms))
	for name := range algorithms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func NewHasher(alg string) (hash.Hash, error) {
	name, err := Normalize(alg)
	if err != nil {
		return nil, err
	}
	return algorithms[name](), nil
}

func Compute(r io.Reader, alg string) (string, error) {
	return ComputeChunked(r, alg, DefaultChunkSize)
}

// ComputeChunked digests r reading at most chunkSize bytes at a time.
func ComputeChunked(r io.Reader, alg string, chunkSize int) (string, error) {
	h, err := NewHasher(alg)
	if err != nil {
		return "", err
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", errors.Wrap(err, "error reading stream for checksum")
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Sum is a digest along with the number of bytes it covers.
type Sum struct {
	Algorithm string
	Value     string
	Size      int64
}

// ComputeWithSize digests r and counts its length in a single pass.
func ComputeWithSize(r io.Reader, alg string) (*Sum, error) {
	name, err := Normalize(alg)
	if err != nil {
		return nil, err
	}
	cr := &countingReader{r: r}
	v, err := Compute(cr, name)
	if err != nil {
		return nil, err
	}
	return &Sum{Algorithm: name, Value: v, Size: cr.n}, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
