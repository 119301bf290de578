// Package model defines the provider-agnostic abstraction over the external
// text-generation capability.
//
// Core goals:
//   - Keep one interface (Model) for every vendor so the gateway never
//     branches on a provider
//   - Keep request/response shapes minimal: one system instruction, one
//     user message, generated text back
//   - Facilitate deterministic tests (MockModel)
//
// Providers (Anthropic, OpenAI, Gemini) live in sub-packages and implement
// Model so that higher layers remain decoupled from vendor SDKs.
package model
