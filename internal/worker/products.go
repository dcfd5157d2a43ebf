package worker

import (
	"context"

	"github.com/nkarev/storewarden/internal/model"
)

// Checker runs a product through every active policy category.
type Checker interface {
	ClassifyAll(ctx context.Context, product model.Product, excluded []string) (*model.ProductResult, error)
}

// ProductJob classifies one product.
type ProductJob struct {
	Product  model.Product
	Excluded []string
	Checker  Checker
}

// Execute runs the classification fan-out for the job's product.
func (j *ProductJob) Execute(ctx context.Context) Result {
	result, err := j.Checker.ClassifyAll(ctx, j.Product, j.Excluded)
	return &ProductOutcome{
		Product: j.Product,
		Result:  result,
		Error:   err,
	}
}

// ProductOutcome is the result of classifying one product. When Error is
// set Result is nil and nothing for the product should be persisted.
type ProductOutcome struct {
	Product model.Product
	Result  *model.ProductResult
	Error   error
}

// GetError returns the classification error, if any.
func (o *ProductOutcome) GetError() error {
	return o.Error
}

// BatchProcessor classifies batches of products concurrently.
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a batch processor running up to concurrency
// products at a time.
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// Process classifies the given products concurrently and returns one
// outcome per product, in completion order.
func (b *BatchProcessor) Process(ctx context.Context, products []model.Product, excluded []string) []*ProductOutcome {
	if len(products) == 0 {
		return []*ProductOutcome{}
	}

	pool := NewPool(b.concurrency)
	pool.Start()

	// Propagate caller cancellation into the pool
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			pool.Shutdown()
		case <-stop:
		}
	}()

	for _, product := range products {
		pool.Submit(&ProductJob{
			Product:  product,
			Excluded: excluded,
			Checker:  b.checker,
		})
	}

	results := pool.Wait()
	close(stop)

	outcomes := make([]*ProductOutcome, 0, len(results))
	for _, result := range results {
		outcomes = append(outcomes, result.(*ProductOutcome))
	}

	return outcomes
}
