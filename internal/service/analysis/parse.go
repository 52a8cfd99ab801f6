package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/applytrack/applytrack-backend/internal/domain"
)

// extractJSON returns the outermost {...} span of s. Models sometimes wrap
// the document in prose or code fences; everything outside the braces is
// discarded.
func extractJSON(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}

// parseResult turns a raw provider response into a validated AnalysisResult.
// Every failure mode wraps domain.ErrInvalidProviderResponse: a malformed
// response is rejected wholesale, never coerced.
func parseResult(raw string) (domain.AnalysisResult, error) {
	doc, ok := extractJSON(raw)
	if !ok {
		return domain.AnalysisResult{}, fmt.Errorf("no JSON object in response: %w", domain.ErrInvalidProviderResponse)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal([]byte(doc), &result); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %w", domain.ErrInvalidProviderResponse, err)
	}

	if err := result.Validate(); err != nil {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %w", domain.ErrInvalidProviderResponse, err)
	}
	return result, nil
}
