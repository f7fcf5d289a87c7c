package analyzers

import (
	"context"

	"candidatelens/internal/ai"
)

// PostClassifier counts technical and domain-relevant items in a batch of
// posts, tweets or articles
type PostClassifier interface {
	ClassifyPosts(ctx context.Context, kind ai.PostKind, domain string, posts []string) (ai.PostClassification, error)
}

// classify runs the classifier on a non-empty batch
func classify(ctx context.Context, c PostClassifier, kind ai.PostKind, domain string, posts []string) (ai.PostClassification, error) {
	if len(posts) == 0 || c == nil {
		return ai.PostClassification{}, nil
	}
	return c.ClassifyPosts(ctx, kind, domain, posts)
}
