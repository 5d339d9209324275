package sph_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSPH(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SPH Suite")
}
