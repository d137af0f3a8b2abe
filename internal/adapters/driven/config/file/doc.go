// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML settings in ~/.paperqa/config.toml
//   - PromptStore: user-editable prompt templates in ~/.paperqa/prompts
package file
