//go:build !unix

package fsx

func isEXDEV(err error) bool { return false }

func isNotDir(err error) bool { return false }
