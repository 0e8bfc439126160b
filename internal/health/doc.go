// Package health computes the non-adaptive 0–100 processor health index.
// Unlike the drift score it carries no history: each sample is graded
// against fixed reference ranges, so the same sample always produces the
// same score.
package health
