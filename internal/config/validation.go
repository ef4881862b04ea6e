package config

import (
	"fmt"
	"path/filepath"
	"slices"

	"git.home.luguber.info/inful/mdsite/internal/errors"
	"git.home.luguber.info/inful/mdsite/internal/markdown"
	"git.home.luguber.info/inful/mdsite/internal/retry"
)

// Validate checks the configuration. It returns a validation error naming
// the first offending field.
func (c *Config) Validate() error {
	if c.Concurrency < 0 {
		return errors.ValidationFailed("concurrency", "must not be negative")
	}
	for _, ext := range c.Markdown.Extensions {
		if !slices.Contains(markdown.KnownExtensions(), ext) {
			return errors.ValidationFailed("markdown.extensions", fmt.Sprintf("unknown extension %q", ext))
		}
	}

	outputs := map[string]string{}
	claim := func(field, output string) error {
		if output == "" || !filepath.IsLocal(filepath.FromSlash(output)) {
			return errors.ValidationFailed(field+".output", fmt.Sprintf("%q is not a path inside the output directory", output))
		}
		if prev, ok := outputs[output]; ok {
			return errors.ValidationFailed(field+".output", fmt.Sprintf("%q is already written by %s", output, prev))
		}
		outputs[output] = field
		return nil
	}

	for i, p := range c.Pages {
		field := fmt.Sprintf("pages[%d]", i)
		if err := claim(field, p.Output); err != nil {
			return err
		}
		if _, err := p.Node.Build(); err != nil {
			return errors.ValidationFailed(field+".node", err.Error())
		}
	}

	folders := map[string]bool{}
	for i, f := range c.Folders {
		field := fmt.Sprintf("folders[%d]", i)
		if f.Name == "" || !filepath.IsLocal(filepath.FromSlash(f.Name)) {
			return errors.ValidationFailed(field+".name", fmt.Sprintf("%q is not a path inside the content directory", f.Name))
		}
		if folders[f.Name] {
			return errors.ValidationFailed(field+".name", fmt.Sprintf("duplicate folder %q", f.Name))
		}
		folders[f.Name] = true
		if _, err := f.Node.Build(); err != nil {
			return errors.ValidationFailed(field+".node", err.Error())
		}
		if f.Index != nil {
			if err := claim(field+".index", f.Index.Output); err != nil {
				return err
			}
			if _, err := f.Index.Node.Build(); err != nil {
				return errors.ValidationFailed(field+".index.node", err.Error())
			}
		}
	}

	if c.Events.Enabled() && c.Events.Subject == "" {
		return errors.ValidationFailed("events.subject", "required when events.nats_url is set")
	}
	if c.Events.MaxRetries < 0 {
		return errors.ValidationFailed("events.max_retries", "must not be negative")
	}
	if c.Events.Backoff != "" && retry.ParseMode(c.Events.Backoff) == "" {
		return errors.ValidationFailed("events.backoff", fmt.Sprintf("unknown backoff %q (fixed, linear, exponential)", c.Events.Backoff))
	}
	return nil
}
