package design

import "errors"

var (
	ErrNoPages         = errors.New("document has no pages")
	ErrDuplicateID     = errors.New("duplicate node id")
	ErrNotTemplate     = errors.New("node is not a template")
	ErrNotInstance     = errors.New("node is not an instance")
	ErrNotText         = errors.New("node is not a text field")
	ErrUnknownProperty = errors.New("unknown property")
	ErrValueType       = errors.New("property value has wrong type")
	ErrInvalidVariant  = errors.New("variant option not allowed")
	ErrUnknownTemplate = errors.New("unknown template")
	ErrFontUnavailable = errors.New("font unavailable")
	ErrFontNotLoaded   = errors.New("font not loaded")
)
