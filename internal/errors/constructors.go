package errors

// Convenience functions for common error patterns

// Render pipeline errors

func TemplateNotFound(name, path string, cause error) *SiteError {
	return Wrap(cause, CategoryTemplateNotFound, SeverityFatal, "template not found").
		WithContext("template", name).
		WithContext("path", path)
}

func TemplateRender(name string, cause error) *SiteError {
	return Wrap(cause, CategoryTemplateRender, SeverityFatal, "template render failed").
		WithContext("template", name)
}

func ContentNotFound(path string, cause error) *SiteError {
	return Wrap(cause, CategoryContentNotFound, SeverityFatal, "content file not found").
		WithContext("path", path)
}

func MetadataDecode(path string, cause error) *SiteError {
	return Wrap(cause, CategoryMetadataDecode, SeverityFatal, "front matter decode failed").
		WithContext("path", path)
}

// Config errors

func ConfigNotFound(path string) *SiteError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *SiteError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "invalid configuration file").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *SiteError {
	return New(CategoryValidation, SeverityFatal, "validation failed: "+field+": "+reason).
		WithContext("field", field).
		WithContext("reason", reason)
}

// Filesystem errors

func FileSystem(operation, path string, cause error) *SiteError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, operation+" failed").
		WithContext("operation", operation).
		WithContext("path", path)
}

// Internal errors

func InternalError(message string, cause error) *SiteError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
