package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/ShayCichocki/critiq/internal/api"
)

// ToolDefinitions returns the page-tool schemas offered to the navigation
// agent. They mirror the browser capabilities of Session.
func ToolDefinitions() []anthropic.ToolUnionParam {
	return []anthropic.ToolUnionParam{
		{
			OfTool: &anthropic.ToolParam{
				Name:        "navigate",
				Description: anthropic.String("Navigate the browser to a URL and wait for the page to load."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{
						"url": map[string]interface{}{
							"type":        "string",
							"description": "Absolute URL to navigate to",
						},
					},
					Required: []string{"url"},
				},
			},
		},
		{
			OfTool: &anthropic.ToolParam{
				Name:        "click",
				Description: anthropic.String("Click the first visible element matching a CSS selector. The selector is validated before clicking; use discover_elements to find working selectors."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{
						"selector": map[string]interface{}{
							"type":        "string",
							"description": "CSS selector of the element to click",
						},
					},
					Required: []string{"selector"},
				},
			},
		},
		{
			OfTool: &anthropic.ToolParam{
				Name:        "extract_text",
				Description: anthropic.String("Extract visible text from the element matching a CSS selector, or from the whole page when no selector is given."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{
						"selector": map[string]interface{}{
							"type":        "string",
							"description": "CSS selector to extract text from (optional)",
						},
					},
				},
			},
		},
		{
			OfTool: &anthropic.ToolParam{
				Name:        "get_elements",
				Description: anthropic.String("List elements matching a CSS selector with tag, text, and attributes."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{
						"selector": map[string]interface{}{
							"type":        "string",
							"description": "CSS selector to match",
						},
						"limit": map[string]interface{}{
							"type":        "integer",
							"description": "Maximum number of elements to return (default 5)",
						},
					},
					Required: []string{"selector"},
				},
			},
		},
		{
			OfTool: &anthropic.ToolParam{
				Name:        "discover_elements",
				Description: anthropic.String("Discover clickable elements on the current page by category: links, buttons, forms, interactive, or all."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{
						"element_type": map[string]interface{}{
							"type":        "string",
							"description": "Category to discover: links, buttons, forms, interactive, all (default all)",
						},
					},
				},
			},
		},
		{
			OfTool: &anthropic.ToolParam{
				Name:        "current_page",
				Description: anthropic.String("Get the URL and title of the current page."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{},
				},
			},
		},
		{
			OfTool: &anthropic.ToolParam{
				Name:        "navigate_back",
				Description: anthropic.String("Navigate back to the previous page."),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: map[string]interface{}{},
				},
			},
		},
	}
}

// discoverCategories maps discovery categories to labeled selectors, in the
// order they are reported.
func discoverCategories(elementType string) []struct{ label, selector string } {
	switch elementType {
	case "links":
		return []struct{ label, selector string }{
			{"All links", "a"},
			{"Links with href", "a[href]"},
			{"External links", "a[href^='http']"},
			{"Internal links", "a[href^='/'], a[href^='#']"},
		}
	case "buttons":
		return []struct{ label, selector string }{
			{"Button elements", "button"},
			{"Submit inputs", "input[type='submit']"},
			{"Button inputs", "input[type='button']"},
		}
	case "forms":
		return []struct{ label, selector string }{
			{"Form elements", "form"},
			{"Text inputs", "input[type='text'], input[type='email'], input[type='password']"},
			{"Textareas", "textarea"},
			{"Select dropdowns", "select"},
		}
	case "interactive":
		return []struct{ label, selector string }{
			{"Clickable with onclick", "[onclick]"},
			{"Role=button", "[role='button']"},
			{"Tabindex elements", "[tabindex]:not([tabindex='-1'])"},
		}
	default:
		return []struct{ label, selector string }{
			{"Links", "a[href]"},
			{"Buttons", "button"},
			{"Submit/Button inputs", "input[type='submit'], input[type='button']"},
			{"Clickable elements", "[onclick], [role='button']"},
			{"Form inputs", "input, textarea, select"},
		}
	}
}

// clickSuggestions returns selector hints for a failed click, based on
// common selector mistakes.
func clickSuggestions(selector string) []string {
	switch {
	case strings.HasPrefix(selector, "a.") && selector != "a":
		return []string{
			fmt.Sprintf("Try 'a' instead of '%s'", selector),
			fmt.Sprintf("Try 'a[class*=\"%s\"]' for a partial class match", strings.TrimPrefix(selector, "a.")),
		}
	case strings.HasPrefix(selector, ".") && strings.Contains(strings.ToLower(selector), "link"):
		return []string{
			"Try 'a' for all links",
			"Try 'a[href]' for links with an href attribute",
		}
	default:
		return []string{
			"Use discover_elements to find available selectors",
			"Try simpler selectors like 'a', 'button', 'input'",
		}
	}
}

// Executor implements the api.ToolExecutor interface over a browser session,
// recording every interaction in the attempt journal.
type Executor struct {
	session *Session
	journal *Journal
}

// NewExecutor creates a tool executor bound to a session and journal.
func NewExecutor(session *Session, journal *Journal) *Executor {
	return &Executor{session: session, journal: journal}
}

// Verify Executor implements api.ToolExecutor at compile time.
var _ api.ToolExecutor = (*Executor)(nil)

// Execute runs a page tool by name with the given JSON input.
func (e *Executor) Execute(ctx context.Context, name string, input json.RawMessage) api.ToolResult {
	switch name {
	case "navigate":
		return e.execNavigate(input)
	case "click":
		return e.execClick(input)
	case "extract_text":
		return e.execExtractText(input)
	case "get_elements":
		return e.execGetElements(input)
	case "discover_elements":
		return e.execDiscover(input)
	case "current_page":
		return e.execCurrentPage()
	case "navigate_back":
		return e.execBack()
	default:
		return api.ToolResult{Content: fmt.Sprintf("Unknown tool: %s", name), IsError: true}
	}
}

func (e *Executor) execNavigate(input json.RawMessage) api.ToolResult {
	var params struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return e.fail("navigate", "", fmt.Sprintf("Invalid parameters: %v", err))
	}

	info, err := e.session.Navigate(params.URL)
	if err != nil {
		return e.fail("navigate", params.URL, fmt.Sprintf("Navigation failed: %v", err))
	}

	e.journal.AddPage(info.URL)
	content := fmt.Sprintf("Navigated to %s\nPage title: %s", info.URL, info.Title)
	e.journal.Record("navigate", params.URL, content, true)
	return api.ToolResult{Content: content}
}

func (e *Executor) execClick(input json.RawMessage) api.ToolResult {
	var params struct {
		Selector string `json:"selector"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return e.fail("click", "", fmt.Sprintf("Invalid parameters: %v", err))
	}

	count, err := e.session.Count(params.Selector)
	if err != nil {
		return e.fail("click", params.Selector, fmt.Sprintf("Invalid selector %q: %v", params.Selector, err))
	}
	if count == 0 {
		var b strings.Builder
		fmt.Fprintf(&b, "No elements found with selector %q\nSuggestions:\n", params.Selector)
		for _, s := range clickSuggestions(params.Selector) {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
		return e.fail("click", params.Selector, b.String())
	}

	result, err := e.session.Click(params.Selector)
	if err != nil {
		return e.fail("click", params.Selector, fmt.Sprintf("Click failed: %v\nUse discover_elements to find working selectors.", err))
	}

	var content string
	if result.Navigated {
		e.journal.AddPage(result.To)
		content = fmt.Sprintf("Clicked %s\nNavigated from %s to %s", params.Selector, result.From, result.To)
	} else {
		content = fmt.Sprintf("Clicked %s (stayed on same page)", params.Selector)
	}
	e.journal.Record("click", params.Selector, content, true)
	return api.ToolResult{Content: content}
}

func (e *Executor) execExtractText(input json.RawMessage) api.ToolResult {
	var params struct {
		Selector string `json:"selector"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &params); err != nil {
			return e.fail("extract_text", "", fmt.Sprintf("Invalid parameters: %v", err))
		}
	}

	if params.Selector != "" {
		count, err := e.session.Count(params.Selector)
		if err != nil {
			return e.fail("extract_text", params.Selector, fmt.Sprintf("Invalid selector %q: %v", params.Selector, err))
		}
		if count == 0 {
			return e.fail("extract_text", params.Selector, fmt.Sprintf("No elements found with selector %q", params.Selector))
		}
	}

	text, err := e.session.ExtractText(params.Selector)
	if err != nil {
		return e.fail("extract_text", params.Selector, fmt.Sprintf("Extract failed: %v", err))
	}

	e.journal.Record("extract_text", params.Selector, text, true)
	return api.ToolResult{Content: text}
}

func (e *Executor) execGetElements(input json.RawMessage) api.ToolResult {
	var params struct {
		Selector string `json:"selector"`
		Limit    int    `json:"limit"`
	}
	if err := json.Unmarshal(input, &params); err != nil {
		return e.fail("get_elements", "", fmt.Sprintf("Invalid parameters: %v", err))
	}

	infos, err := e.session.Elements(params.Selector, params.Limit)
	if err != nil {
		return e.fail("get_elements", params.Selector, fmt.Sprintf("Element lookup failed: %v", err))
	}

	content := formatElements(params.Selector, infos)
	e.journal.Record("get_elements", params.Selector, content, true)
	return api.ToolResult{Content: content}
}

func (e *Executor) execDiscover(input json.RawMessage) api.ToolResult {
	var params struct {
		ElementType string `json:"element_type"`
	}
	if len(input) > 0 {
		if err := json.Unmarshal(input, &params); err != nil {
			return e.fail("discover_elements", "", fmt.Sprintf("Invalid parameters: %v", err))
		}
	}

	page, err := e.session.CurrentPage()
	if err != nil {
		return e.fail("discover_elements", params.ElementType, fmt.Sprintf("Discovery failed: %v", err))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Clickable elements on %s:\n", page.URL)
	for _, cat := range discoverCategories(params.ElementType) {
		infos, err := e.session.Elements(cat.selector, 5)
		if err != nil {
			fmt.Fprintf(&b, "\n%s: lookup failed: %v\n", cat.label, err)
			continue
		}
		if len(infos) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s (selector: %s)\n", cat.label, cat.selector)
		b.WriteString(formatElements(cat.selector, infos))
	}
	b.WriteString("\nUse the selectors shown above with the click tool. Hidden elements may not be clickable.\n")

	content := b.String()
	e.journal.Record("discover_elements", params.ElementType, content, true)
	return api.ToolResult{Content: content}
}

func (e *Executor) execCurrentPage() api.ToolResult {
	info, err := e.session.CurrentPage()
	if err != nil {
		return e.fail("current_page", "", fmt.Sprintf("Failed to read current page: %v", err))
	}

	content := fmt.Sprintf("URL: %s\nTitle: %s", info.URL, info.Title)
	e.journal.Record("current_page", "", content, true)
	return api.ToolResult{Content: content}
}

func (e *Executor) execBack() api.ToolResult {
	info, err := e.session.Back()
	if err != nil {
		return e.fail("navigate_back", "", fmt.Sprintf("Back navigation failed: %v", err))
	}

	e.journal.AddPage(info.URL)
	content := fmt.Sprintf("Navigated back to %s\nPage title: %s", info.URL, info.Title)
	e.journal.Record("navigate_back", "", content, true)
	return api.ToolResult{Content: content}
}

// fail records a failed interaction and returns an error tool result.
func (e *Executor) fail(action, target, message string) api.ToolResult {
	e.journal.Record(action, target, message, false)
	return api.ToolResult{Content: message, IsError: true}
}

// formatElements renders element info lines for tool output.
func formatElements(selector string, infos []ElementInfo) string {
	if len(infos) == 0 {
		return fmt.Sprintf("No elements found with selector %q", selector)
	}

	var b strings.Builder
	for i, info := range infos {
		var attrs []string
		if info.Href != "" {
			href := info.Href
			if len(href) > 40 {
				href = href[:40] + "..."
			}
			attrs = append(attrs, fmt.Sprintf("href=%q", href))
		}
		if info.Type != "" {
			attrs = append(attrs, fmt.Sprintf("type=%q", info.Type))
		}
		if info.ID != "" {
			attrs = append(attrs, fmt.Sprintf("id=%q", info.ID))
		}
		if info.Class != "" {
			attrs = append(attrs, fmt.Sprintf("class=%q", info.Class))
		}

		attrStr := ""
		if len(attrs) > 0 {
			attrStr = " [" + strings.Join(attrs, ", ") + "]"
		}
		visibility := ""
		if !info.Visible {
			visibility = " (hidden)"
		}

		text := info.Text
		if text == "" {
			text = "no text"
		}
		fmt.Fprintf(&b, "  %d. <%s>%s %q%s\n", i+1, info.Tag, attrStr, text, visibility)
	}
	return b.String()
}
