// Package util provides small generic helpers shared across appflow
package util
