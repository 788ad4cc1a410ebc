package retrieval

import (
	"fmt"
	"testing"

	"retailqa/internal/corpus"
)

func policyCorpus() []corpus.Chunk {
	return []corpus.Chunk{
		{ID: "product_policy::chunk0", Source: "product_policy.md", Content: "# Return Policy\nBeverages unopened: 14 days from delivery. Opened beverages are not returnable."},
		{ID: "kpi_definitions::chunk0", Source: "kpi_definitions.md", Content: "AOV = total revenue / number of orders. Tracked monthly."},
		{ID: "marketing_calendar::chunk0", Source: "marketing_calendar.md", Content: "# Summer Beverages 1997\nCampaign window: 1997-06-01 to 1997-08-31. Focus on Beverages."},
		{ID: "product_catalog::chunk0", Source: "product_catalog.md", Content: "Categories: Beverages, Condiments, Confections, Dairy Products, Produce, Seafood."},
	}
}

func TestRetrieveEmptyCorpus(t *testing.T) {
	r := New(nil, 3)
	if got := r.Retrieve("anything"); len(got) != 0 {
		t.Fatalf("expected no results from empty corpus, got %d", len(got))
	}
}

func TestRetrieveBoundAndNoDuplicates(t *testing.T) {
	chunks := make([]corpus.Chunk, 0, 10)
	for i := 0; i < 10; i++ {
		chunks = append(chunks, corpus.Chunk{
			ID:      fmt.Sprintf("doc::chunk%d", i),
			Source:  "doc.md",
			Content: fmt.Sprintf("filler section %d about orders and revenue", i),
		})
	}
	r := New(chunks, 3)
	got := r.Retrieve("total revenue from orders")
	if len(got) > 3 {
		t.Fatalf("result exceeds top-k: %d", len(got))
	}
	seen := map[string]struct{}{}
	for _, c := range got {
		if _, dup := seen[c.ID]; dup {
			t.Fatalf("duplicate chunk %s in results", c.ID)
		}
		seen[c.ID] = struct{}{}
	}
}

func TestRetrievePolicyQuestionFavorsPolicyDoc(t *testing.T) {
	r := New(policyCorpus(), 3)
	got := r.Retrieve("What is the return window for unopened Beverages?")
	if len(got) == 0 {
		t.Fatal("no results")
	}
	if got[0].Source != "product_policy.md" {
		t.Fatalf("expected policy chunk first, got %s (score %.3f)", got[0].ID, got[0].Score)
	}
}

func TestRetrieveCampaignQuestionFavorsMarketingDoc(t *testing.T) {
	r := New(policyCorpus(), 3)
	got := r.Retrieve("During Summer Beverages 1997, which category had the highest sales?")
	if len(got) == 0 {
		t.Fatal("no results")
	}
	if got[0].Source != "marketing_calendar.md" {
		t.Fatalf("expected marketing chunk first, got %s (score %.3f)", got[0].ID, got[0].Score)
	}
}

func TestRetrieveScoresBounded(t *testing.T) {
	r := New(policyCorpus(), 4)
	for _, c := range r.Retrieve("return window days for Beverages per the policy in 1997") {
		if c.Score < 0 || c.Score > 1 {
			t.Fatalf("score out of range for %s: %f", c.ID, c.Score)
		}
	}
}

func TestRetrieveStableTieOrder(t *testing.T) {
	chunks := []corpus.Chunk{
		{ID: "a::chunk0", Source: "a.md", Content: "identical text"},
		{ID: "a::chunk1", Source: "a.md", Content: "identical text"},
	}
	r := New(chunks, 2)
	got := r.Retrieve("unrelated query")
	if len(got) != 2 || got[0].ID != "a::chunk0" || got[1].ID != "a::chunk1" {
		t.Fatalf("tie not broken by original order: %+v", got)
	}
}

func TestVocabularyCap(t *testing.T) {
	contents := make([]string, 0, 600)
	for i := 0; i < 600; i++ {
		contents = append(contents, fmt.Sprintf("unique%da unique%db unique%dc unique%dd unique%de", i, i, i, i, i))
	}
	idx := buildIndex(contents)
	if len(idx.vocab) > vocabLimit {
		t.Fatalf("vocabulary exceeds cap: %d", len(idx.vocab))
	}
}
