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

package windowservice

import "github.com/achetronic/model-registry-go/registry"

const (
	endOfText   = "<|endoftext|>"
	sentenceEnd = "</s>"
)

func token(s string) *string { return registry.Ptr(s) }

// families holds the hard-coded profiles of the built-in model families.
// Their values do not depend on deployment records.
var families = map[string]Limits{
	"ai21": {
		TokenizerName: "ai21/j1", PrefixToken: token(""), EndOfTextToken: " ",
		MaxSequenceLength: 2047,
	},
	"ai21_jurassic2_jumbo": {
		TokenizerName: "ai21/j1", PrefixToken: token(""), EndOfTextToken: " ",
		MaxSequenceLength: 6000,
	},
	"anthropic": {
		TokenizerName: "anthropic/claude", PrefixToken: token(endOfText), EndOfTextToken: endOfText,
		MaxSequenceLength: 8000, MaxSequenceAndGeneratedTokensLength: 9016,
	},
	"bloom": {
		TokenizerName: "bigscience/bloom", PrefixToken: token(sentenceEnd), EndOfTextToken: sentenceEnd,
		MaxSequenceLength: 2048, MaxRequestLength: 2049,
	},
	"cohere": {
		TokenizerName: "cohere/cohere", PrefixToken: token(":"), EndOfTextToken: "",
		MaxSequenceLength: 2047, MaxRequestLength: 2048,
	},
	"cohere_command": {
		TokenizerName: "cohere/cohere", PrefixToken: token(":"), EndOfTextToken: "",
		MaxSequenceLength: 2019, MaxRequestLength: 2020,
	},
	"flan_t5": {
		TokenizerName: "google/flan-t5-xxl", PrefixToken: token(""), EndOfTextToken: sentenceEnd,
		MaxSequenceLength: 511,
	},
	"gpt2": {
		TokenizerName: "huggingface/gpt2", PrefixToken: token(endOfText), EndOfTextToken: endOfText,
		MaxSequenceLength: 1024, MaxRequestLength: 1025,
	},
	"gpt_turbo": {
		TokenizerName: "openai/cl100k_base", PrefixToken: token(endOfText), EndOfTextToken: endOfText,
		MaxSequenceLength: 4000, MaxRequestLength: 4001,
	},
	"gpt_turbo_16k": {
		TokenizerName: "openai/cl100k_base", PrefixToken: token(endOfText), EndOfTextToken: endOfText,
		MaxSequenceLength: 16000, MaxRequestLength: 16001,
	},
	"gptj": {
		TokenizerName: "EleutherAI/gpt-j-6B", PrefixToken: token(endOfText), EndOfTextToken: endOfText,
		MaxSequenceLength: 2048, MaxRequestLength: 2049,
	},
	"gptneox": {
		TokenizerName: "EleutherAI/gpt-neox-20b", PrefixToken: token(endOfText), EndOfTextToken: endOfText,
		MaxSequenceLength: 2048, MaxRequestLength: 2049,
	},
	"http_model": {
		TokenizerName: "neurips/local", PrefixToken: token(endOfText), EndOfTextToken: endOfText,
		MaxSequenceLength: 2048,
	},
	"ice": {
		TokenizerName: "TsinghuaKEG/ice", PrefixToken: token(""), EndOfTextToken: sentenceEnd,
		MaxSequenceLength: 2048, MaxRequestLength: 2049,
	},
	"legacy_anthropic": {
		TokenizerName: "huggingface/gpt2", PrefixToken: token(endOfText), EndOfTextToken: endOfText,
		MaxSequenceLength: 8192,
	},
	"llama": {
		TokenizerName: "hf-internal-testing/llama-tokenizer", PrefixToken: token("<s>"), EndOfTextToken: sentenceEnd,
		MaxSequenceLength: 2048,
	},
	"llama2": {
		TokenizerName: "meta-llama/Llama-2-7b-hf", PrefixToken: token("<s>"), EndOfTextToken: sentenceEnd,
		MaxSequenceLength: 4096, MaxRequestLength: registry.UnboundedLength,
	},
	// Palmyra shares the GPT-2 tokenizer but sends no prefix token.
	"longer_palmyra": {
		TokenizerName: "huggingface/gpt2", PrefixToken: token(""), EndOfTextToken: endOfText,
		MaxSequenceLength: 8192, MaxSequenceAndGeneratedTokensLength: 8192,
	},
	"luminous_base": {
		TokenizerName: "AlephAlpha/luminous-base", PrefixToken: token(""), EndOfTextToken: "",
		MaxSequenceLength: 2048,
	},
	"luminous_extended": {
		TokenizerName: "AlephAlpha/luminous-extended", PrefixToken: token(""), EndOfTextToken: "",
		MaxSequenceLength: 2048,
	},
	"luminous_supreme": {
		TokenizerName: "AlephAlpha/luminous-supreme", PrefixToken: token(""), EndOfTextToken: "",
		MaxSequenceLength: 2048,
	},
	"megatron": {
		TokenizerName: "huggingface/gpt2", PrefixToken: token(endOfText), EndOfTextToken: endOfText,
		MaxSequenceLength: 1024,
	},
	"mt_nlg": {
		TokenizerName: "huggingface/gpt2", PrefixToken: token(endOfText), EndOfTextToken: endOfText,
		MaxSequenceLength: 2047, MaxRequestLength: 2048,
	},
	"openai": {
		TokenizerName: "huggingface/gpt2", PrefixToken: token(endOfText), EndOfTextToken: endOfText,
		MaxSequenceLength: 2048, MaxRequestLength: 2049,
	},
	"opt": {
		TokenizerName: "facebook/opt-66b", PrefixToken: token(sentenceEnd), EndOfTextToken: sentenceEnd,
		MaxSequenceLength: 2048, MaxRequestLength: 2049,
	},
	"palmyra": {
		TokenizerName: "huggingface/gpt2", PrefixToken: token(""), EndOfTextToken: endOfText,
		MaxSequenceLength: 2048, MaxSequenceAndGeneratedTokensLength: 2048,
	},
	"santacoder": {
		TokenizerName: "bigcode/santacoder", PrefixToken: token(endOfText), EndOfTextToken: endOfText,
		MaxSequenceLength: 2048,
	},
	"stablelm_alpha": {
		TokenizerName: "EleutherAI/gpt-neox-20b", PrefixToken: token(endOfText), EndOfTextToken: endOfText,
		MaxSequenceLength: 4096, MaxRequestLength: 4097,
	},
	"starcoder": {
		TokenizerName: "bigcode/starcoder", PrefixToken: token(endOfText), EndOfTextToken: endOfText,
		MaxSequenceLength: 8192,
	},
	"t0pp": {
		TokenizerName: "bigscience/T0pp", PrefixToken: token(""), EndOfTextToken: sentenceEnd,
		MaxSequenceLength: 1024,
	},
	"t5_11b": {
		TokenizerName: "google/t5-11b", PrefixToken: token(""), EndOfTextToken: sentenceEnd,
		MaxSequenceLength: 511,
	},
	"ul2": {
		TokenizerName: "google/ul2", PrefixToken: token(""), EndOfTextToken: sentenceEnd,
		MaxSequenceLength: 511,
	},
	"wider_openai": {
		TokenizerName: "huggingface/gpt2", PrefixToken: token(endOfText), EndOfTextToken: endOfText,
		MaxSequenceLength: 4000, MaxRequestLength: 4001,
	},
	"yalm": {
		TokenizerName: "Yandex/yalm", PrefixToken: token(sentenceEnd), EndOfTextToken: sentenceEnd,
		MaxSequenceLength: 2048, MaxRequestLength: 2049,
	},
}
