// Пакет openapi — встроенный OpenAPI контракт API портала.
package openapi

import _ "embed"

// Spec — OpenAPI 3 контракт в формате YAML.
//
//go:embed openapi.yaml
var Spec []byte
