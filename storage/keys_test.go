package storage

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTwox128_KnownPrefixes(t *testing.T) {
	// System.Account prefix as used by every Substrate chain.
	require.Equal(t, "26aa394eea5630e07c48ae0c9558cef7", hex.EncodeToString(Twox128([]byte("System"))))
	require.Equal(t, "b99d880ec681799c0cf30e8886371da9", hex.EncodeToString(Twox128([]byte("Account"))))
}

func TestKeyLayout_DefaultDepositsKey(t *testing.T) {
	l := DefaultKeyLayout()
	require.NoError(t, l.Validate())

	key := l.Key([]byte("client-42"))
	want := "b9999b47ab8428a37f3d09aea82505c4" +
		"74a614db8021c6bd0a028aafdf29dd08" +
		"4e72c21a637d16a6" +
		"636c69656e742d3432"
	require.Equal(t, want, hex.EncodeToString(key))
}

func TestKeyLayout_Blake2Concat(t *testing.T) {
	l := KeyLayout{Pallet: DefaultPallet, Item: DefaultItem, Hasher: HasherBlake2_128Concat}
	key := l.Key([]byte("client-42"))
	require.Equal(t, "470443af756674cb08574c96d4418110636c69656e742d3432", hex.EncodeToString(key[32:]))
}

func TestKeyLayout_IDRecovers(t *testing.T) {
	for _, h := range []Hasher{HasherTwox64Concat, HasherBlake2_128Concat, HasherIdentity} {
		l := KeyLayout{Pallet: "P", Item: "I", Hasher: h}
		for _, id := range [][]byte{{}, []byte("c1"), []byte("a much longer client identifier")} {
			got, err := l.ID(l.Key(id))
			require.NoError(t, err, "hasher %s", h)
			require.Equal(t, string(id), string(got), "hasher %s", h)
		}
	}
}

func TestKeyLayout_IDRejectsForeignKeys(t *testing.T) {
	l := DefaultKeyLayout()
	other := KeyLayout{Pallet: "Other", Item: DefaultItem, Hasher: HasherTwox64Concat}

	_, err := l.ID(other.Key([]byte("c1")))
	require.ErrorIs(t, err, ErrInvalidKey)

	tampered := l.Key([]byte("c1"))
	tampered[len(tampered)-1] ^= 0x01
	_, err = l.ID(tampered)
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = l.ID(l.Prefix()[:10])
	require.ErrorIs(t, err, ErrInvalidKey)
}

func TestKeyLayout_ValidateRejectsUnknownHasher(t *testing.T) {
	l := KeyLayout{Pallet: "P", Item: "I", Hasher: "sha1"}
	require.Error(t, l.Validate())
	require.Error(t, KeyLayout{Hasher: HasherIdentity}.Validate())
}
