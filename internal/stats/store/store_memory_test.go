package store

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type InMemoryStoreSuite struct {
	contractSuite
}

func TestInMemoryStoreSuite(t *testing.T) {
	s := new(InMemoryStoreSuite)
	s.newStore = func() counterStore { return NewInMemoryStore() }
	suite.Run(t, s)
}
