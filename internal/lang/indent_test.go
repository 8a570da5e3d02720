package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndentExtractor_FunctionWithDocstring(t *testing.T) {
	t.Parallel()
	src := `def greet(name):
    """Greets a user by name."""
    return say_hello(name)
`
	e := NewIndentExtractor()
	language, forest, err := e.Extract([]byte(src), "greet.py")
	require.NoError(t, err)
	assert.Equal(t, "python", language)
	require.Len(t, forest, 1)

	fn := forest[0]
	assert.Equal(t, "greet", fn.Name)
	assert.Equal(t, KindFunction, fn.Kind)
	assert.Contains(t, fn.DocComment, "Greets a user by name.")
	require.Len(t, fn.References, 1)
	assert.Equal(t, "say_hello", fn.References[0].Name)
}

func TestIndentExtractor_ClassWithBaseAndMethod(t *testing.T) {
	t.Parallel()
	src := `class Dog(Animal):
    def bark(self):
        return woof()
`
	e := NewIndentExtractor()
	_, forest, err := e.Extract([]byte(src), "dog.py")
	require.NoError(t, err)
	require.Len(t, forest, 1)

	class := forest[0]
	assert.Equal(t, "Dog", class.Name)
	assert.Equal(t, KindClass, class.Kind)
	require.Len(t, class.References, 1)
	assert.Equal(t, "Animal", class.References[0].Name)
	assert.Equal(t, RefExtends, class.References[0].Kind)

	require.Len(t, class.Children, 1)
	assert.Equal(t, "bark", class.Children[0].Name)
	assert.Equal(t, KindMethod, class.Children[0].Kind)
}

func TestIndentExtractor_DecoratorBecomesReference(t *testing.T) {
	t.Parallel()
	src := `@staticmethod
def util():
    pass
`
	e := NewIndentExtractor()
	_, forest, err := e.Extract([]byte(src), "util.py")
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, "util", forest[0].Name)
	require.NotEmpty(t, forest[0].References)
	assert.Equal(t, "staticmethod", forest[0].References[0].Name)
}
