// Package sites implements providers.Provider for HTML manga sites whose
// layout can be described with CSS selectors. Each site is a Rules value;
// the built-in ones live in builtin.go and more can be declared in the
// config file.
package sites
