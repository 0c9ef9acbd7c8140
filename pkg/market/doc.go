// Package market expands market placeholders in table-name templates.
//
// Recognized placeholders are {market}, {region} and {country}, each also
// accepted with a leading '$', matched case-insensitively. Every placeholder
// in a template is replaced by the same market code.
package market
