// Package snapshot produces a canonical text export of the deposit ledger and
// a content identifier for it.
//
// Format:
//
//	claimledger-snapshot-v1
//	<hex client id> <decimal amount>
//	...
//
// Lines are sorted by client id bytes, so identical ledger contents export to
// identical bytes whatever the storage key layout or insertion order.
package snapshot

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"

	"xdao.co/claimledger/model"
)

const Header = "claimledger-snapshot-v1"

// Source is anything that can enumerate deposit records (ledger.Ledger).
type Source interface {
	ForEach(fn func(id model.ClientID, amount model.Amount) error) error
}

// Record is one exported deposit.
type Record struct {
	ClientID model.ClientID
	Amount   model.Amount
}

// Collect reads every record from src, sorted by client id.
func Collect(src Source) ([]Record, error) {
	var out []Record
	err := src.ForEach(func(id model.ClientID, amount model.Amount) error {
		out = append(out, Record{ClientID: id.Clone(), Amount: amount})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return bytes.Compare(out[i].ClientID, out[j].ClientID) < 0 })
	return out, nil
}

// Export returns the canonical export of src.
func Export(src Source) ([]byte, error) {
	records, err := Collect(src)
	if err != nil {
		return nil, err
	}
	return Encode(records), nil
}

// Encode renders records in the order given.
func Encode(records []Record) []byte {
	var b strings.Builder
	b.WriteString(Header)
	b.WriteByte('\n')
	for _, r := range records {
		fmt.Fprintf(&b, "%s %s\n", r.ClientID.Hex(), r.Amount)
	}
	return []byte(b.String())
}

// Decode parses an export. Records must be strictly ascending by client id.
//
// Lines have no length limit; client ids are arbitrary length.
func Decode(r io.Reader) ([]Record, error) {
	br := bufio.NewReader(r)
	header, err := readLine(br)
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("snapshot: empty input")
		}
		return nil, err
	}
	if header != Header {
		return nil, fmt.Errorf("snapshot: unexpected header %q", header)
	}
	var out []Record
	for line := 2; ; line++ {
		text, err := readLine(br)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		// The client id may be empty, so split on the single separator.
		rawID, rawAmount, ok := strings.Cut(text, " ")
		if !ok {
			return nil, fmt.Errorf("snapshot: line %d: missing amount", line)
		}
		id, err := model.ParseClientID(rawID)
		if err != nil {
			return nil, fmt.Errorf("snapshot: line %d: %w", line, err)
		}
		amount, err := model.ParseAmount(rawAmount)
		if err != nil {
			return nil, fmt.Errorf("snapshot: line %d: %w", line, err)
		}
		if n := len(out); n > 0 && bytes.Compare(out[n-1].ClientID, id) >= 0 {
			return nil, fmt.Errorf("snapshot: line %d: records out of order", line)
		}
		out = append(out, Record{ClientID: id, Amount: amount})
	}
	return out, nil
}

// readLine returns the next line without its terminator. A final line without
// a newline is still returned; io.EOF means nothing was left.
func readLine(br *bufio.Reader) (string, error) {
	s, err := br.ReadString('\n')
	if err == io.EOF && s != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	s = strings.TrimSuffix(s, "\n")
	return strings.TrimSuffix(s, "\r"), nil
}

// CID returns the CIDv1 (raw codec, sha2-256 multihash) of data.
func CID(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// Verify reports whether data hashes to want.
func Verify(data []byte, want cid.Cid) (bool, error) {
	got, err := CID(data)
	if err != nil {
		return false, err
	}
	return got.Equals(want), nil
}
