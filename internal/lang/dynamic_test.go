package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDynamicExtractor_ClassWithSuperclassAndMethod(t *testing.T) {
	t.Parallel()
	src := `class Dog < Animal
  # Makes the dog bark.
  def bark
    woof
  end
end`
	e := NewDynamicExtractor()
	language, forest, err := e.Extract([]byte(src), "dog.rb")
	require.NoError(t, err)
	assert.Equal(t, "ruby", language)
	require.Len(t, forest, 1)

	class := forest[0]
	assert.Equal(t, "Dog", class.Name)
	assert.Equal(t, KindClass, class.Kind)
	require.Len(t, class.References, 1)
	assert.Equal(t, "Animal", class.References[0].Name)
	assert.Equal(t, RefExtends, class.References[0].Kind)

	require.Len(t, class.Children, 1)
	method := class.Children[0]
	assert.Equal(t, "bark", method.Name)
	assert.Contains(t, method.DocComment, "Makes the dog bark.")
}

func TestDynamicExtractor_ModuleIncludeAndRequire(t *testing.T) {
	t.Parallel()
	src := `module Greeter
  require 'set'
  include Comparable
end`
	e := NewDynamicExtractor()
	_, forest, err := e.Extract([]byte(src), "greeter.rb")
	require.NoError(t, err)
	require.Len(t, forest, 1)

	mod := forest[0]
	assert.Equal(t, "Greeter", mod.Name)
	assert.Equal(t, KindModule, mod.Kind)

	var sawRequire, sawInclude bool
	for _, r := range mod.References {
		if r.Kind == RefImport && r.Name == "set" {
			sawRequire = true
		}
		if r.Kind == RefImport && r.Name == "Comparable" {
			sawInclude = true
		}
	}
	assert.True(t, sawRequire, "expected a require reference to 'set'")
	assert.True(t, sawInclude, "expected an include reference to Comparable")
}

func TestDynamicExtractor_ConstantAssignment(t *testing.T) {
	t.Parallel()
	src := `class Config
  MAX_RETRIES = 3
end`
	e := NewDynamicExtractor()
	_, forest, err := e.Extract([]byte(src), "config.rb")
	require.NoError(t, err)
	require.Len(t, forest, 1)
	require.Len(t, forest[0].Children, 1)
	assert.Equal(t, "MAX_RETRIES", forest[0].Children[0].Name)
	assert.Equal(t, KindConstant, forest[0].Children[0].Kind)
}
