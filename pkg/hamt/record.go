package hamt

import "github.com/huynhanx03/recurvedb/pkg/diary"

// GetRecord looks key up and decodes the record its value points at.
func GetRecord[T any, PT interface {
	*T
	diary.Unmarshaler
}](r Reader, dr *diary.Reader, key uint32) (T, bool, error) {
	var v T
	pos, ok, err := r.Get(key)
	if err != nil || !ok {
		return v, false, err
	}
	if err := dr.ReadInto(diary.Pos(pos), PT(&v)); err != nil {
		return v, false, err
	}
	return v, true, nil
}

// EachRecord decodes every record reachable from r in index order.
func EachRecord[T any, PT interface {
	*T
	diary.Unmarshaler
}](r Reader, dr *diary.Reader, fn func(T) error) error {
	return r.Each(func(_, value uint32) error {
		var v T
		if err := dr.ReadInto(diary.Pos(value), PT(&v)); err != nil {
			return err
		}
		return fn(v)
	})
}
