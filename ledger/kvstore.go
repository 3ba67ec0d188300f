package ledger

import (
	"xdao.co/claimledger/model"
	"xdao.co/claimledger/storage"
)

// KVStore keeps deposit records in a storage.KV under a KeyLayout.
// Values are the 16-byte little-endian amount encoding.
type KVStore struct {
	kv     storage.KV
	layout storage.KeyLayout
}

var _ Store = (*KVStore)(nil)

func NewKVStore(kv storage.KV, layout storage.KeyLayout) (*KVStore, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &KVStore{kv: kv, layout: layout}, nil
}

// Layout returns the key layout records are stored under.
func (s *KVStore) Layout() storage.KeyLayout { return s.layout }

func (s *KVStore) Get(id model.ClientID) (model.Amount, bool, error) {
	b, err := s.kv.Get(s.layout.Key(id))
	if storage.IsNotFound(err) {
		return model.Amount{}, false, nil
	}
	if err != nil {
		return model.Amount{}, false, err
	}
	a, err := model.AmountFromBinary(b)
	if err != nil {
		return model.Amount{}, false, err
	}
	return a, true, nil
}

func (s *KVStore) Put(id model.ClientID, amount model.Amount) error {
	b, err := amount.MarshalBinary()
	if err != nil {
		return err
	}
	return s.kv.Put(s.layout.Key(id), b)
}

func (s *KVStore) ForEach(fn func(id model.ClientID, amount model.Amount) error) error {
	return s.kv.Iterate(s.layout.Prefix(), func(key, value []byte) error {
		id, err := s.layout.ID(key)
		if err != nil {
			return err
		}
		a, err := model.AmountFromBinary(value)
		if err != nil {
			return err
		}
		return fn(model.ClientID(id), a)
	})
}
