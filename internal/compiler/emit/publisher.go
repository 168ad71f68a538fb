package emit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	errs "github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Static-Index-Compiler/pkg/redis"
)

// KVPublisher uploads artifact blobs to the KV store the query runtime
// fetches packages from. Keys follow `<prefix>:<artifact>:<ordinal>` for
// packages and `<prefix>:<artifact>:lookup` for lookup tables.
type KVPublisher struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

func NewKVPublisher(client *redis.Client, prefix string) *KVPublisher {
	return &KVPublisher{
		client: client,
		prefix: prefix,
		logger: slog.Default().With("component", "emit-kv"),
	}
}

// Publish uploads every package and lookup blob. Any failure is a fatal
// build failure; a partially published generation must not go live.
func (p *KVPublisher) Publish(ctx context.Context, sets []ArtifactSet) error {
	for _, set := range sets {
		batch := make(map[string][]byte, len(set.Packages)+1)
		for i, pkg := range set.Packages {
			batch[p.key(set.Name, strconv.Itoa(i))] = pkg
		}
		batch[p.key(set.Name, "lookup")] = set.Lookup
		if err := p.client.SetAll(ctx, batch); err != nil {
			return errs.Newf(errs.ErrPublishFailed, "publish-kv",
				"uploading artifact set %s: %v", set.Name, err)
		}
		p.logger.Info("artifact set uploaded",
			"artifact", set.Name,
			"keys", len(batch),
		)
	}
	return nil
}

func (p *KVPublisher) key(artifact, suffix string) string {
	return fmt.Sprintf("%s:%s:%s", p.prefix, artifact, suffix)
}
