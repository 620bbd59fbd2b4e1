package llm

import (
	"context"
	"fmt"
)

// Gateway is the generative-model capability the chat layer depends
// on. Exactly four request shapes exist; the chat layer picks one per
// submission and never mixes them.
//
// Every method reports transport, auth, and quota failures as plain
// errors; callers treat them as recoverable.
type Gateway interface {
	// GeneralStream answers from general knowledge, streaming.
	GeneralStream(ctx context.Context, history []Turn, input string) (Stream, error)

	// DocumentStream answers about the given document, streaming.
	DocumentStream(ctx context.Context, history []Turn, input string, doc DocumentContext) (Stream, error)

	// GroundedSearch answers from the given website using a search
	// tool, single-shot, with citations.
	GroundedSearch(ctx context.Context, history []Turn, input string, url string) (Result, error)

	// MediaTurn answers about an inline media payload, single-shot
	// and stateless: no history is sent and no citations come back.
	MediaTurn(ctx context.Context, input string, media MediaContext) (Result, error)
}

// RefusalPolicy selects how document-grounded chat treats questions
// the document does not answer. Two behaviors shipped historically;
// the policy makes the choice explicit instead of silent.
type RefusalPolicy string

const (
	// RefusalDisclose falls back to outside knowledge but discloses
	// that the answer is not from the source document.
	RefusalDisclose RefusalPolicy = "disclose"

	// RefusalRefuse refuses outright when the document has no answer.
	RefusalRefuse RefusalPolicy = "refuse"
)

// ParseRefusalPolicy validates a configured policy name.
// Empty means the default, RefusalDisclose.
func ParseRefusalPolicy(s string) (RefusalPolicy, error) {
	switch RefusalPolicy(s) {
	case "":
		return RefusalDisclose, nil
	case RefusalDisclose, RefusalRefuse:
		return RefusalPolicy(s), nil
	default:
		return "", fmt.Errorf("unknown refusal policy %q (want %q or %q)", s, RefusalDisclose, RefusalRefuse)
	}
}

const generalSystemInstruction = `You are a helpful and knowledgeable assistant named qbit LM. Answer the user's questions clearly and concisely.`

func documentSystemInstruction(doc DocumentContext, policy RefusalPolicy) string {
	fallback := `- If the document doesn't contain the answer, use your own knowledge to respond, but clearly state that the information is not from the source document.`
	if policy == RefusalRefuse {
		fallback = `- If the document doesn't contain the answer, say so plainly and stop. Do not answer from outside knowledge.`
	}
	return fmt.Sprintf(`You are an expert assistant, qbit LM. Your task is to answer questions about a provided document.
- First, use the information from the document context provided below.
%s
- The user is asking about the document titled: "%s".
---
DOCUMENT CONTEXT:
%s
---`, fallback, doc.Title, doc.Content)
}

func groundedSystemInstruction(url string) string {
	return fmt.Sprintf(`You are an expert web analyst named qbit LM. Your goal is to answer questions based *only* on the content of the provided website URL. Use your search tool to explore the website. Do not use any other external knowledge. If the answer cannot be found on the website, state that clearly. The website to analyze is: %s`, url)
}
