package redis

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/selfadvocacy/discovery/internal/db"
)

// ReplaceDocuments writes every document in one round trip. Each document is
// swapped inside its own MULTI/EXEC (DEL then HSET) so a concurrent search
// sees either the old hash or the new one. Empty field values are not
// written; an empty tag or text field and a missing one index the same way.
func (s *Store) ReplaceDocuments(ctx context.Context, docs []db.Document) error {
	if len(docs) == 0 {
		return nil
	}

	cmds := make(rueidis.Commands, 0, len(docs)*4)
	owner := make([]string, 0, cap(cmds))
	for _, d := range docs {
		tx := s.replaceTx(d)
		cmds = append(cmds, tx...)
		for range tx {
			owner = append(owner, d.Key)
		}
	}

	for i, res := range s.client.DoMulti(ctx, cmds...) {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpReplace, Err: fmt.Errorf("key %s: %w", owner[i], classify(err))}
		}
	}
	return nil
}

func (s *Store) replaceTx(d db.Document) rueidis.Commands {
	b := s.client.B()
	tx := rueidis.Commands{b.Multi().Build(), b.Del().Key(d.Key).Build()}

	hset := b.Hset().Key(d.Key).FieldValue()
	n := 0
	for k, v := range d.Fields {
		if v == "" {
			continue
		}
		hset = hset.FieldValue(k, v)
		n++
	}
	if n > 0 {
		tx = append(tx, hset.Build())
	}
	return append(tx, b.Exec().Build())
}
