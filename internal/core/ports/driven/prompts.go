package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptAnswerSystem is the system instruction for answer generation.
	// This prompt has no format placeholders.
	PromptAnswerSystem = "answer_system"

	// PromptAnswerUser wraps the question and the numbered context blocks.
	// The template expects two %s placeholders: question, then context.
	PromptAnswerUser = "answer_user"

	// PromptNoResult is the reply given when no chunk clears the threshold.
	// This prompt has no format placeholders.
	PromptNoResult = "no_result"
)

// DefaultPrompts returns the built-in prompt templates keyed by name.
// They are used when no prompt file overrides them.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
func DefaultPrompts() map[string]string {
	return map[string]string{
		PromptAnswerSystem: `당신은 논문 분석 전문가입니다. 사용자의 질문에 대해 제공된 논문 내용을 바탕으로 정확하고 상세한 답변을 제공해주세요.

답변 가이드라인:
1. 제공된 컨텍스트에서 질문과 관련된 정보만 사용하세요
2. 정보가 부족하면 "제공된 논문에서는 해당 내용을 찾을 수 없습니다"라고 명시하세요
3. 답변은 한국어로 작성하되, 전문 용어는 영문 병기하세요
4. 가능한 경우 구체적인 예시나 수치를 포함하세요
5. 답변은 4096 토큰을 넘지 않도록 간결하게 작성하세요`,

		PromptAnswerUser: `질문: %s

관련 논문 내용:
%s

위의 논문 내용을 바탕으로 질문에 답변해주세요.`,

		PromptNoResult: `죄송합니다. 업로드된 문서에서 관련된 내용을 찾을 수 없습니다. 다른 질문을 시도해보시거나 관련 문서를 업로드해주세요.`,
	}
}
