package main

// Output format constants.
const (
	jsonFormat = "json"
	yamlFormat = "yaml"
	textFormat = "text"
)

// metricsNamespace prefixes every exported metric.
const metricsNamespace = "ytdigest"
