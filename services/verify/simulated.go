package verifysvc

import (
	"context"
	"fmt"
	"strings"

	"github.com/LestlinRobins/skilldom-BitnBuild/core"
	"github.com/LestlinRobins/skilldom-BitnBuild/core/account"
)

// simulatedVerifier scores claimed skills against the evidence the account
// submits. There is no external AI call; the scoring is a deterministic
// heuristic so results are reproducible.
type simulatedVerifier struct {
	logger core.Logger
}

var _ account.SkillVerifier = (*simulatedVerifier)(nil)

func NewSimulatedVerifier(logger core.Logger) account.SkillVerifier {
	return &simulatedVerifier{logger: logger}
}

// verification threshold on the 0-1 confidence scale
const confidenceThreshold = 0.6

func (v *simulatedVerifier) VerifySkills(ctx context.Context, evidence account.VerificationEvidence) (account.VerificationResult, error) {
	select {
	case <-ctx.Done():
		return account.VerificationResult{}, ctx.Err()
	default:
	}

	confidence := 0.2 // baseline for showing up at all
	if evidence.GithubURL != "" {
		confidence += 0.25
	}
	if evidence.LinkedinURL != "" {
		confidence += 0.2
	}
	if evidence.PortfolioURL != "" {
		confidence += 0.2
	}
	confidence += 0.05 * float64(len(evidence.OtherLinks))
	if len(evidence.Bio) >= 80 {
		confidence += 0.1
	}
	if confidence > 1 {
		confidence = 1
	}

	bio := strings.ToLower(evidence.Bio)
	var verified, unverified []string
	for _, skill := range evidence.ClaimedSkills {
		// a skill mentioned in the bio counts as corroborated
		if strings.Contains(bio, strings.ToLower(skill)) || confidence >= confidenceThreshold {
			verified = append(verified, skill)
		} else {
			unverified = append(unverified, skill)
		}
	}

	res := account.VerificationResult{
		Verified:         confidence >= confidenceThreshold && len(verified) > 0,
		Confidence:       confidence,
		VerifiedSkills:   verified,
		UnverifiedSkills: unverified,
		Suggestions:      v.suggestions(evidence),
		Reasoning: fmt.Sprintf(
			"%d of %d claimed skills corroborated by the submitted profile evidence",
			len(verified), len(evidence.ClaimedSkills)),
	}

	v.logger.Debug("skill verification scored", map[string]interface{}{
		"confidence": res.Confidence,
		"verified":   res.Verified,
	})
	return res, nil
}

func (v *simulatedVerifier) suggestions(evidence account.VerificationEvidence) []string {
	var sug []string
	if evidence.GithubURL == "" {
		sug = append(sug, "Link a GitHub profile with public repositories showcasing your skills.")
	}
	if evidence.LinkedinURL == "" {
		sug = append(sug, "Add a LinkedIn profile listing your experience.")
	}
	if evidence.PortfolioURL == "" {
		sug = append(sug, "Publish a portfolio with projects that demonstrate your claimed skills.")
	}
	if len(evidence.Bio) < 80 {
		sug = append(sug, "Expand your bio to describe how you use each skill.")
	}
	return sug
}
