// Package domain contains the core entity types of the application:
// organisms and their gene records, including the ortholog annotation
// fields populated by background processing.
//
// Domain types carry their own validation; stores and services rely on
// the NewX constructors and Validate methods defined here rather than
// re-implementing the rules.
package domain
