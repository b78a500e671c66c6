// Package docs discovers documentation pages and reads their directives.
//
// A page is a Markdown file under the pages directory. It declares symbols
// with fenced blocks:
//
//	```{symdoc}
//	:file: src/components/core/component.dart
//	:symbol: Component
//	:package: flame
//	```
//
// and references symbols inline with {ref}`Component` or
// {ref}`Component-update`. The page id is the path relative to the pages
// directory without extension, using forward slashes.
package docs
