package cmd

import "github.com/ardnew/artmpl/lang"

var (
	ErrReadData    = lang.NewError("read data file")
	ErrParseData   = lang.NewError("parse data file")
	ErrDataShape   = lang.NewError("data file must contain a mapping")
	ErrReadSource  = lang.NewError("read template source")
	ErrWriteOutput = lang.NewError("write rendered output")
	ErrCheck       = lang.NewError("template check failed")
	ErrYAMLMarshal = lang.NewError("marshal YAML")
	ErrWriteConfig = lang.NewError("write configuration file")
	ErrFileExists  = lang.NewError("file exists (use --force to overwrite)")
)
