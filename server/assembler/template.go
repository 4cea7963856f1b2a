package assembler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/hrygo/linguasense/store"
)

// DefaultSystemTemplate is the base tutoring prompt. Placeholders are
// substituted from the learner profile at assembly time.
const DefaultSystemTemplate = `You are a friendly and patient {target_language} tutor. ` +
	`The learner's native language is {native_language} and their current level is {current_level}. ` +
	`Their learning goal: {learning_goal}. ` +
	`Keep replies short and conversational, correct mistakes gently, and prefer {target_language} ` +
	`with {native_language} explanations only when the learner seems stuck.`

// TemplateError reports a placeholder in the system template that has no
// corresponding learner profile field. It is a configuration defect: the
// affected call is aborted, nothing else.
type TemplateError struct {
	Placeholder string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("system template references unknown placeholder %q", e.Placeholder)
}

var placeholderPattern = regexp.MustCompile(`\{([a-z_]+)\}`)

// RenderTemplate substitutes {placeholder} fields in the template with
// learner profile values. Unknown placeholders fail with *TemplateError.
func RenderTemplate(template string, learner *store.Learner) (string, error) {
	fields := map[string]string{
		"native_language": learner.NativeLanguage,
		"target_language": learner.TargetLanguage,
		"current_level":   learner.CurrentLevel,
		"target_level":    learner.TargetLevel,
		"learning_goal":   learner.LearningGoal,
		"username":        learner.Username,
		"weekly_hours":    strconv.Itoa(int(learner.WeeklyHours)),
	}

	var unknown string
	rendered := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := strings.Trim(match, "{}")
		value, ok := fields[name]
		if !ok {
			if unknown == "" {
				unknown = name
			}
			return match
		}
		return value
	})
	if unknown != "" {
		return "", &TemplateError{Placeholder: unknown}
	}

	return rendered, nil
}
