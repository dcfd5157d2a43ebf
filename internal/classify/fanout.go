package classify

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nkarev/storewarden/internal/model"
	"github.com/nkarev/storewarden/internal/policy"
)

// ClassifyAll checks one product against every policy category not in
// excluded, concurrently, and joins the results into a set keyed by
// category key. If any single classification fails the whole fan-out
// fails; callers wanting resilience catch at the per-product level and
// move on to the next product rather than retrying here.
func (c *Classifier) ClassifyAll(ctx context.Context, product model.Product, excluded []string) (*model.ProductResult, error) {
	active := policy.Active(excluded)
	if len(active) == 0 {
		return nil, fmt.Errorf("no active policy categories (catalog %d, excluded %d)", len(policy.All()), len(excluded))
	}

	result := &model.ProductResult{
		Product:  product.Identity(),
		Verdicts: make(map[string]model.Verdict, len(active)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, category := range active {
		category := category
		g.Go(func() error {
			verdict, err := c.Classify(gctx, category, product)
			if err != nil {
				return err
			}
			mu.Lock()
			result.Verdicts[verdict.CategoryKey] = verdict
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}
