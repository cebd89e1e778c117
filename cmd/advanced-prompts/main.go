// cmd/advanced-prompts/main.go
package main

import (
	"fmt"
	"strings"

	"github.com/sammcj/promptlab/chain"
	"github.com/sammcj/promptlab/demo"
	"github.com/sammcj/promptlab/parser"
	"github.com/sammcj/promptlab/prompt"
	"github.com/sammcj/promptlab/types"
)

type bookRecommendation struct {
	Title      string `json:"title" description:"book title"`
	Author     string `json:"author" description:"author"`
	Reason     string `json:"reason" description:"why this book fits"`
	Difficulty string `json:"difficulty" description:"difficulty level"`
}

func main() {
	env, ctx, cancel, err := demo.Setup("advanced-prompts")
	if err != nil {
		demo.Exit(err)
	}
	defer cancel()
	defer env.Close()

	model, err := env.Model(env.Config.LLM)
	if err != nil {
		env.Fatal(err)
	}

	env.Section("1. Structured output")
	recommend := prompt.MustFromTemplate(`You are a book recommendation expert.
Recommend one book for a {level} learner studying {topic}.

Requirements:
- the title must be accurate
- the reason must be specific
- the difficulty must suit the learner

Return JSON:
{{
    "title": "title",
    "author": "author",
    "reason": "reason",
    "difficulty": "difficulty"
}}`)
	var book bookRecommendation
	err = chain.Pipe(recommend, model, parser.NewJSONParser(bookRecommendation{})).
		InvokeInto(ctx, map[string]interface{}{"topic": "Go programming", "level": "beginner"}, &book)
	if err != nil {
		env.Fatal(err)
	}
	env.Field("Structured output", fmt.Sprintf("%+v", book))

	env.Section("2. Multi-turn chat template")
	chat := prompt.FromMessages(
		prompt.SystemMessage("You are a professional {role}. Answer in a {style} way."),
		prompt.Placeholder("chat_history"),
		prompt.HumanMessage("{question}"),
	)
	msgs, err := chat.FormatMessages(map[string]interface{}{
		"role":  "programming mentor",
		"style": "concise",
		"chat_history": []types.Message{
			types.Human("What is Go?"),
			types.AI("Go is a compiled language with simple syntax and built-in concurrency..."),
		},
		"question": "What is Go mainly used for?",
	})
	if err != nil {
		env.Fatal(err)
	}
	for _, m := range msgs {
		fmt.Fprintf(env.Out, "- %s: %s\n", m.Role, preview(m.Content, 50))
	}

	env.Section("3. Conditional templates")
	env.Field("Beginner", levelTemplate("beginner").Template())
	env.Field("Advanced", levelTemplate("advanced").Template())

	env.Section("4. Composed templates")
	base := prompt.MustFromTemplate("You are a {role} specialising in {domain}.")
	task := prompt.MustFromTemplate("Complete the following task: {task_description}")
	format := prompt.MustFromTemplate("Present the result as {format_style}.")
	combined := prompt.MustFromTemplate("{base_context}\n\n{task_info}\n\n{format_requirement}")

	out, err := combined.Format(map[string]interface{}{
		"base_context":       mustFormat(env, base, map[string]interface{}{"role": "data analyst", "domain": "finance"}),
		"task_info":          mustFormat(env, task, map[string]interface{}{"task_description": "analyse the stock price trend"}),
		"format_requirement": mustFormat(env, format, map[string]interface{}{"format_style": "a chart with commentary"}),
	})
	if err != nil {
		env.Fatal(err)
	}
	env.Box(out)

	env.Section("5. Context-aware templates")
	env.Field("Error context", contextTemplate("TypeError: 'NoneType' object is not callable").Template())
	env.Field("Performance context", contextTemplate("performance: function takes more than 5 seconds").Template())
}

// levelTemplate picks the explanation style for a learner level
func levelTemplate(level string) *prompt.Template {
	switch level {
	case "beginner":
		return prompt.MustFromTemplate(`You are a patient programming mentor.
Explain {topic} as simply as possible.
Requirements:
- use everyday analogies
- give concrete examples
- avoid jargon`)
	case "advanced":
		return prompt.MustFromTemplate(`You are a senior programming expert.
Explain the advanced concepts behind {topic}.
Requirements:
- analyse the underlying mechanics
- give best practices
- discuss performance`)
	default:
		return prompt.MustFromTemplate("Briefly introduce {topic}.")
	}
}

// contextTemplate chooses a template from keywords found in the context
func contextTemplate(contextInfo string) *prompt.Template {
	lower := strings.ToLower(contextInfo)
	switch {
	case strings.Contains(lower, "error"):
		return prompt.MustFromTemplate("Detected error: {context}\nAnalyse the error and propose a fix.\nUser question: {query}")
	case strings.Contains(lower, "performance"):
		return prompt.MustFromTemplate("Performance information: {context}\nSuggest optimisations.\nUser question: {query}")
	default:
		return prompt.MustFromTemplate("Context: {context}\nAnswer the user's question: {query}")
	}
}

func mustFormat(env *demo.Env, t *prompt.Template, vars map[string]interface{}) string {
	s, err := t.Format(vars)
	if err != nil {
		env.Fatal(err)
	}
	return s
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
