// cmd/real-world/main.go
package main

import (
	"fmt"

	"github.com/sammcj/promptlab/chain"
	"github.com/sammcj/promptlab/demo"
	"github.com/sammcj/promptlab/parser"
	"github.com/sammcj/promptlab/prompt"
)

type customerServiceResponse struct {
	Intent     string  `json:"intent" description:"user intent"`
	Confidence float64 `json:"confidence" description:"confidence between 0 and 1"`
	Response   string  `json:"response" description:"reply to the user"`
	Action     string  `json:"action" description:"follow-up action"`
}

const fibonacci = `
def calculate_fibonacci(n):
    if n <= 1:
        return n
    return calculate_fibonacci(n-1) + calculate_fibonacci(n-2)

result = calculate_fibonacci(100)
print(result)
`

func main() {
	env, ctx, cancel, err := demo.Setup("real-world")
	if err != nil {
		demo.Exit(err)
	}
	defer cancel()
	defer env.Close()

	model, err := env.Model(env.Config.LLM)
	if err != nil {
		env.Fatal(err)
	}

	env.Section("Scenario 1: customer service bot")
	support := prompt.MustFromTemplate(`You are a professional customer service bot.

User message: {user_message}
User history: {chat_history}
Product information: {product_info}

Work out the user's intent and reply appropriately. Return JSON:
{{
    "intent": "enquiry / complaint / purchase / other",
    "confidence": 0.95,
    "response": "reply",
    "action": "hand to a human / provide information / log the issue"
}}`)
	result, err := chain.Pipe(support, model, parser.NewJSONParser(customerServiceResponse{})).Invoke(ctx, map[string]interface{}{
		"user_message": "I'd like to know what your product costs",
		"chat_history": "The user previously asked about product features",
		"product_info": "Plans start at $15 a month with a free trial",
	})
	if err != nil {
		env.Fatal(err)
	}
	env.Field("Analysis", result)

	env.Section("Scenario 2: code review assistant")
	review := prompt.MustFromTemplate("You are a senior code reviewer.\n\n" +
		"Language: {language}\nCode:\n```{language}\n{code}\n```\n\n" +
		`Review the code, focusing on:
1. code quality
2. potential bugs
3. performance
4. security risks

Return JSON:
{{
    "score": 85,
    "issues": ["issue 1", "issue 2"],
    "suggestions": ["suggestion 1", "suggestion 2"],
    "security_risks": ["risk 1"],
    "overall_comment": "summary"
}}`)
	text, err := chain.Pipe(review, model, nil).Invoke(ctx, map[string]interface{}{
		"language": "python",
		"code":     fibonacci,
	})
	if err != nil {
		env.Fatal(err)
	}
	fmt.Fprintln(env.Out, text)

	env.Section("Scenario 3: translation")
	message := "We are pleased to let you know that your order has shipped."
	for _, setting := range []string{"business email", "social media post"} {
		out, err := chain.Pipe(translationTemplate("English", "French", setting), model, nil).
			Invoke(ctx, map[string]interface{}{"text": message})
		if err != nil {
			env.Fatal(err)
		}
		env.Field(setting, out)
	}

	env.Section("Scenario 4: documentation prompt")
	doc := prompt.MustFromTemplate(`You are a professional technical writer.

Project:
- name: {project_name}
- stack: {tech_stack}
- features: {features}
- audience: {target_users}

Write a {doc_type} covering:
{requirements}

Style: {style}
Length: {length}`)
	apiDoc, err := doc.Format(map[string]interface{}{
		"project_name": "User management service",
		"tech_stack":   "Go + PostgreSQL",
		"features":     "sign-up, login, permissions, usage statistics",
		"target_users": "developers and administrators",
		"doc_type":     "API reference",
		"requirements": "- endpoints\n- request parameters\n- response format\n- error codes",
		"style":        "technical",
		"length":       "detailed",
	})
	if err != nil {
		env.Fatal(err)
	}
	env.Box(apiDoc)
}

// translationTemplate bakes the language pair and setting into the source; only {text} remains
func translationTemplate(source, target, setting string) *prompt.Template {
	if setting == "" {
		return prompt.MustFromTemplate(fmt.Sprintf("Translate the following %s text into %s:\n\n{text}", source, target))
	}
	return prompt.MustFromTemplate(fmt.Sprintf(`You are a professional translator fluent in %[1]s and %[2]s.

Original (%[1]s): {text}
Setting: %[3]s

Translate the original into %[2]s:
- keep the tone and style
- take the setting into account
- make it accurate and natural`, source, target, setting))
}
