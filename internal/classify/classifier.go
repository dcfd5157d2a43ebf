// Package classify implements the classification core: one model call
// per (product, policy category) pair, confidence scoring from token
// log-probabilities, concurrent fan-out across the catalog, and the
// per-site summarization pass.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/nkarev/storewarden/internal/llm"
	"github.com/nkarev/storewarden/internal/model"
	"github.com/nkarev/storewarden/internal/policy"
)

const classifySystemPrompt = "You are checking to see if a product is compliant with the criteria of a merchant. " +
	"You will be given a product and a specific criteria. " +
	"You will need to check the product against the criteria and return a boolean value. " +
	"You will also need to provide a reason for your answer. " +
	"If there is not enough information to make a determination, you should return false. " +
	"The criteria is: <criteria>%s</criteria> " +
	"The examples of products in violation of this criteria are: <examples>%s</examples>"

// Pacer gates outbound model calls. A nil Pacer means unpaced.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Classifier evaluates products against policy categories through an
// LLM provider. It holds no mutable state; every call is an independent
// request/response.
type Classifier struct {
	provider llm.Provider
	pacer    Pacer
}

// NewClassifier creates a classifier over the given provider. pacer
// may be nil to disable rate limiting.
func NewClassifier(provider llm.Provider, pacer Pacer) *Classifier {
	return &Classifier{
		provider: provider,
		pacer:    pacer,
	}
}

// productPayload is the structured user message. Only name and the
// stripped descriptions are sent to the model; the permalink is carried
// through to the verdict but never leaves the process.
type productPayload struct {
	Product struct {
		Name             string `json:"name"`
		Description      string `json:"description"`
		ShortDescription string `json:"short_description"`
	} `json:"product"`
}

// Classify checks one product against one policy category and returns
// a verdict. Description fields must already be HTML-stripped by the
// caller. Failures are never retried here: a transient error surfaces
// immediately and the next incremental run picks the product up again.
func (c *Classifier) Classify(ctx context.Context, category policy.Category, product model.Product) (model.Verdict, error) {
	if c.pacer != nil {
		if err := c.pacer.Wait(ctx); err != nil {
			return model.Verdict{}, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var payload productPayload
	payload.Product.Name = product.Name
	payload.Product.Description = product.Description
	payload.Product.ShortDescription = product.ShortDescription

	user, err := json.Marshal(payload)
	if err != nil {
		return model.Verdict{}, fmt.Errorf("marshal product payload: %w", err)
	}

	resp, err := c.provider.Classify(ctx, llm.ClassifyRequest{
		System: fmt.Sprintf(classifySystemPrompt, category.Label, category.Examples),
		User:   string(user),
	})
	if err != nil {
		return model.Verdict{}, fmt.Errorf("classify %q against %s: %w", product.Name, category.Key, err)
	}

	if strings.TrimSpace(resp.Reason) == "" {
		return model.Verdict{}, fmt.Errorf("classify %q against %s: %w: empty reason",
			product.Name, category.Key, llm.ErrGeneration)
	}

	return model.Verdict{
		CategoryKey: category.Key,
		Violates:    resp.Violates,
		Reason:      resp.Reason,
		Confidence:  Confidence(resp.Violates, resp.LogProbs),
		Model:       resp.Model,
		GeneratedAt: resp.GeneratedAt,
		Product:     product.Identity(),
	}, nil
}

// Confidence derives the strength-of-commitment score for the chosen
// boolean: exp of the log-probability of the token whose text equals
// "true" or "false" matching the verdict. Returns 0 when the provider
// exposed no such entry. 0 means "no evidence", not "certainly false";
// this is not a calibrated probability of correctness.
func Confidence(violates bool, logProbs []llm.TokenLogProb) float64 {
	want := strconv.FormatBool(violates)
	for _, lp := range logProbs {
		if lp.Token == want {
			conf := math.Exp(lp.LogProb)
			if conf > 1 {
				conf = 1
			}
			return conf
		}
	}
	return 0
}
