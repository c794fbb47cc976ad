package dialogue

import (
	"log"
	"strings"
	"testing"

	"doc-support-be/pkg/store"
)

func TestSelectTitledDocument(t *testing.T) {
	s := NewSelector(log.Default())
	session := newTestSession()
	session.QueryStatus = store.StatusNewAsk

	results := []store.Result{
		{Kind: store.KindDocument, ExcerptText: "Bucket policies are...", Title: "S3 Policies", SourceURI: "https://docs/s3"},
	}

	sel := s.Select(results, "s3 bucket policy", session)

	if !sel.Found {
		t.Fatal("expected a selection")
	}
	if !strings.Contains(sel.Speech, "S3 Policies") {
		t.Errorf("speech should announce the title, got %q", sel.Speech)
	}
	if !strings.Contains(sel.Speech, "read me an excerpt") {
		t.Errorf("titled documents should offer a read-back, got %q", sel.Speech)
	}
	if session.QueryResult != "S3 Policies" {
		t.Errorf("QueryResult = %q, want the title", session.QueryResult)
	}
	if session.LastDocText != "Bucket policies are..." {
		t.Errorf("LastDocText = %q, want the excerpt", session.LastDocText)
	}
	if session.LastHandler != store.HandlerCaptureQuery {
		t.Errorf("LastHandler = %q, want %q", session.LastHandler, store.HandlerCaptureQuery)
	}
	if session.LastQuery != "s3 bucket policy" {
		t.Errorf("LastQuery = %q", session.LastQuery)
	}
	if session.LastSourceURI != "https://docs/s3" {
		t.Errorf("LastSourceURI = %q", session.LastSourceURI)
	}
	if session.LastOutput != sel.Speech {
		t.Error("LastOutput should record the spoken response")
	}
}

func TestSelectAnswerUsesExcerpt(t *testing.T) {
	s := NewSelector(log.Default())
	session := newTestSession()
	session.QueryStatus = store.StatusNewAsk

	results := []store.Result{
		{Kind: store.KindAnswer, ExcerptText: "Use aws s3api put-bucket-policy.", SourceURI: "https://docs/cli"},
	}

	sel := s.Select(results, "set bucket policy", session)

	if !sel.Found {
		t.Fatal("expected a selection")
	}
	if !strings.Contains(sel.Speech, "Use aws s3api put-bucket-policy.") {
		t.Errorf("speech should quote the answer, got %q", sel.Speech)
	}
	if session.QueryResult != "Use aws s3api put-bucket-policy." {
		t.Errorf("QueryResult = %q", session.QueryResult)
	}
}

func TestSelectUntitledDocumentFallsBackToExcerpt(t *testing.T) {
	s := NewSelector(log.Default())
	session := newTestSession()
	session.QueryStatus = store.StatusNewAsk

	results := []store.Result{
		{Kind: store.KindDocument, ExcerptText: "Excerpt only.", SourceURI: "https://docs/x"},
	}

	sel := s.Select(results, "q", session)

	if session.QueryResult != "Excerpt only." {
		t.Errorf("QueryResult = %q, want the excerpt", session.QueryResult)
	}
	if strings.Contains(sel.Speech, "titled") {
		t.Errorf("untitled document should not announce a title, got %q", sel.Speech)
	}
}

func TestSelectSkipsRejectedCandidate(t *testing.T) {
	s := NewSelector(log.Default())
	session := newTestSession()
	session.LastQuery = "s3 bucket policy"
	session.QueryStatus = store.StatusAskedNotAnswered

	results := []store.Result{
		{Kind: store.KindDocument, ExcerptText: "first", Title: "First", SourceURI: "u1"},
		{Kind: store.KindDocument, ExcerptText: "second", Title: "Second", SourceURI: "u2"},
	}

	sel := s.Select(results, "s3 bucket policy", session)

	if !sel.Found {
		t.Fatal("expected the second candidate to be selected")
	}
	if !strings.Contains(sel.Speech, "Second") {
		t.Errorf("speech = %q, want the second candidate", sel.Speech)
	}
	if session.QueryCount != 1 {
		t.Errorf("QueryCount = %d, want 1", session.QueryCount)
	}
	if session.QueryStatus != store.StatusNewPass {
		t.Errorf("QueryStatus = %q, want %q", session.QueryStatus, store.StatusNewPass)
	}
}

func TestSelectSkipsAtTwoShownCandidates(t *testing.T) {
	s := NewSelector(log.Default())
	session := newTestSession()
	session.QueryStatus = store.StatusNewPass
	session.QueryCount = 2

	results := []store.Result{
		{Kind: store.KindDocument, ExcerptText: "first", Title: "First", SourceURI: "u1"},
		{Kind: store.KindDocument, ExcerptText: "third", Title: "Third", SourceURI: "u3"},
	}

	sel := s.Select(results, "q", session)

	if !sel.Found {
		t.Fatal("expected a selection")
	}
	if !strings.Contains(sel.Speech, "Third") {
		t.Errorf("speech = %q, want the candidate after the skip", sel.Speech)
	}
	if session.QueryCount != 3 {
		t.Errorf("QueryCount = %d, want 3", session.QueryCount)
	}
}

func TestSelectRejectedOnlyCandidateCountsOnce(t *testing.T) {
	s := NewSelector(log.Default())
	session := newTestSession()
	session.LastQuery = "s3 bucket policy"
	session.QueryStatus = store.StatusAskedNotAnswered

	results := []store.Result{
		{Kind: store.KindDocument, ExcerptText: "only", Title: "Only", SourceURI: "u1"},
	}

	sel := s.Select(results, "s3 bucket policy", session)

	if sel.Found {
		t.Fatal("the sole rejected candidate should not be re-selected")
	}
	if sel.Speech != speechNoMatch {
		t.Errorf("Speech = %q, want the no-match fallback", sel.Speech)
	}
	if session.QueryCount != 1 {
		t.Errorf("QueryCount = %d, want 1; the skip already counted this pass", session.QueryCount)
	}
	if session.QueryStatus != store.StatusNewPass {
		t.Errorf("QueryStatus = %q, want %q", session.QueryStatus, store.StatusNewPass)
	}
}

func TestSelectExhaustionFallback(t *testing.T) {
	s := NewSelector(log.Default())
	session := newTestSession()
	session.QueryStatus = store.StatusNewAsk

	sel := s.Select(nil, "nothing matches this", session)

	if sel.Found {
		t.Fatal("no results should not select")
	}
	if sel.Speech != speechNoMatch {
		t.Errorf("Speech = %q, want the no-match fallback", sel.Speech)
	}
	if session.QueryCount != 1 {
		t.Errorf("QueryCount = %d, want 1 so repeated misses escalate", session.QueryCount)
	}
	if session.LastHandler != store.HandlerCaptureQuery {
		t.Errorf("LastHandler = %q, want %q", session.LastHandler, store.HandlerCaptureQuery)
	}
}
