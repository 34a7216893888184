// Package observable holds in-memory collections that implement
// reactive.Source: a List and a keyed Cache.
package observable
