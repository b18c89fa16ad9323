// Copyright 2025 achetronic
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package windowguard

import (
	"fmt"
	"strings"

	"google.golang.org/adk/model"
	"google.golang.org/genai"

	"github.com/achetronic/model-registry-go/windowservice"
)

// fit drops leading contents of req until it fits ws next to completion
// generated tokens. The last content is never dropped, and neither is a
// trailing function call and response pair. When what is left is still too
// long, the last text part is truncated.
func fit(ws windowservice.WindowService, req *model.LLMRequest, completion int) (dropped int, truncated bool) {
	for !ws.FitsWithinContextWindow(render(req), completion) && len(req.Contents) > 1 {
		idx := safeSplitIndex(req.Contents, 1)
		if idx >= len(req.Contents) {
			break
		}
		req.Contents = req.Contents[idx:]
		dropped += idx
	}
	if ws.FitsWithinContextWindow(render(req), completion) {
		return dropped, false
	}
	return dropped, truncateLastText(ws, req, completion)
}

// truncateLastText shortens the last text part of the request so the whole
// request fits. Counts are not additive across the line join, so the budget
// shrinks until the rendered request fits or the part is empty.
func truncateLastText(ws windowservice.WindowService, req *model.LLMRequest, completion int) bool {
	part := lastTextPart(req.Contents)
	if part == nil {
		return false
	}
	text := part.Text
	part.Text = ""
	others := ws.CountTokens(render(req))
	for extra := 0; ; extra++ {
		part.Text = ws.TruncateFromRight(text, completion+others+extra)
		if part.Text == "" || ws.FitsWithinContextWindow(render(req), completion) {
			break
		}
	}
	return part.Text != text
}

func lastTextPart(contents []*genai.Content) *genai.Part {
	for i := len(contents) - 1; i >= 0; i-- {
		if contents[i] == nil {
			continue
		}
		parts := contents[i].Parts
		for j := len(parts) - 1; j >= 0; j-- {
			if parts[j] != nil && parts[j].Text != "" {
				return parts[j]
			}
		}
	}
	return nil
}

// render flattens the system instruction and every content into the text
// the window service counts, one line per part.
func render(req *model.LLMRequest) string {
	var lines []string
	if req.Config != nil && req.Config.SystemInstruction != nil {
		lines = appendParts(lines, req.Config.SystemInstruction.Parts)
	}
	for _, c := range req.Contents {
		if c != nil {
			lines = appendParts(lines, c.Parts)
		}
	}
	return strings.Join(lines, "\n")
}

func appendParts(lines []string, parts []*genai.Part) []string {
	for _, part := range parts {
		if part == nil {
			continue
		}
		if part.Text != "" {
			lines = append(lines, part.Text)
		}
		if part.FunctionCall != nil {
			var sb strings.Builder
			sb.WriteString(part.FunctionCall.Name)
			for k, v := range part.FunctionCall.Args {
				fmt.Fprintf(&sb, " %s=%v", k, v)
			}
			lines = append(lines, sb.String())
		}
		if part.FunctionResponse != nil {
			lines = append(lines, fmt.Sprintf("%s %v", part.FunctionResponse.Name, part.FunctionResponse.Response))
		}
	}
	return lines
}

// safeSplitIndex adjusts a candidate split index so it never lands between
// a function call and its response. It prefers walking back to a clean
// boundary and walks forward past the current pair when walking back
// reaches the start. The result is within [1, len(contents)]; len(contents)
// means no split keeps the pairs whole.
func safeSplitIndex(contents []*genai.Content, idx int) int {
	if idx <= 0 || idx >= len(contents) {
		return idx
	}
	orig := idx
	idx = walkBackToPairBoundary(contents, idx)
	if idx <= 0 {
		idx = walkForwardToPairBoundary(contents, orig)
	}
	return min(max(idx, 1), len(contents))
}

func walkBackToPairBoundary(contents []*genai.Content, idx int) int {
	for idx > 0 {
		c := contents[idx]
		if c == nil {
			break
		}
		if c.Role == genai.RoleUser && contentHasFunctionResponse(c) {
			idx--
			continue
		}
		if c.Role == genai.RoleModel && contentHasFunctionCall(c) {
			idx--
			continue
		}
		break
	}
	return idx
}

// walkForwardToPairBoundary stops right after the function response that
// closes the pair at idx.
func walkForwardToPairBoundary(contents []*genai.Content, idx int) int {
	for idx < len(contents) {
		c := contents[idx]
		if c == nil {
			break
		}
		if c.Role == genai.RoleModel && contentHasFunctionCall(c) {
			idx++
			continue
		}
		if c.Role == genai.RoleUser && contentHasFunctionResponse(c) {
			idx++
		}
		break
	}
	return idx
}

func contentHasFunctionResponse(c *genai.Content) bool {
	for _, part := range c.Parts {
		if part != nil && part.FunctionResponse != nil {
			return true
		}
	}
	return false
}

func contentHasFunctionCall(c *genai.Content) bool {
	for _, part := range c.Parts {
		if part != nil && part.FunctionCall != nil {
			return true
		}
	}
	return false
}
