// Package mocks holds generated gomock doubles.
package mocks

//go:generate mockgen -destination=auth.go -package=mocks github.com/klipach/justchat/auth Provider
//go:generate mockgen -destination=store.go -package=mocks github.com/klipach/justchat/store ContactStore,MessageStore
