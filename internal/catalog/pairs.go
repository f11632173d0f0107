package catalog

import (
	"jedisim/internal/settings"
)

// Kind selects the rewrite applied to a file.
type Kind int

const (
	ObjectCatalog Kind = iota
	PathList
)

func (k Kind) String() string {
	if k == ObjectCatalog {
		return "catalog"
	}
	return "list"
}

// Pair is one baseline file and its rotated destination.
type Pair struct {
	Kind Kind
	In   string
	Out  string
}

// RotatedPairs returns the three rewrites bridging the baseline case to the
// rotated case: the object catalog, the convolved-band list and the
// distorted-image list.
func RotatedPairs(ns settings.Namespace) ([]Pair, error) {
	files := []struct {
		kind Kind
		key  string
	}{
		{ObjectCatalog, "catalog_file"},
		{PathList, "convolvedlist_file"},
		{PathList, "distortedlist_file"},
	}
	pairs := make([]Pair, 0, len(files))
	for _, f := range files {
		in, err := ns.Require(f.key)
		if err != nil {
			return nil, err
		}
		out, err := ns.Require(settings.RotatedKey(f.key))
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Kind: f.kind, In: in, Out: out})
	}
	return pairs, nil
}

// RotateAll applies each pair in order, stopping at the first failure.
func RotateAll(from, to string, pairs ...Pair) error {
	for _, p := range pairs {
		var err error
		switch p.Kind {
		case ObjectCatalog:
			err = RotateCatalog(p.In, p.Out, from, to)
		default:
			err = RewriteList(p.In, p.Out, from, to)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
