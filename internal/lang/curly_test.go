package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurlyBraceExtractor_JavaScriptFunction(t *testing.T) {
	t.Parallel()
	src := `// Greets a user by name.
function greet(name) {
  return sayHello(name);
}`
	e := NewCurlyBraceExtractor()
	language, forest, err := e.Extract([]byte(src), "greet.js")
	require.NoError(t, err)
	assert.Equal(t, "javascript", language)
	require.Len(t, forest, 1)

	fn := forest[0]
	assert.Equal(t, "greet", fn.Name)
	assert.Equal(t, KindFunction, fn.Kind)
	assert.Contains(t, fn.DocComment, "Greets a user by name.")
	require.Len(t, fn.References, 1)
	assert.Equal(t, "sayHello", fn.References[0].Name)
	assert.Equal(t, RefCall, fn.References[0].Kind)
}

func TestCurlyBraceExtractor_TypeScriptClassWithHeritage(t *testing.T) {
	t.Parallel()
	src := `class Dog extends Animal implements Named {
  bark() {
    return woof();
  }
}`
	e := NewCurlyBraceExtractor()
	language, forest, err := e.Extract([]byte(src), "dog.ts")
	require.NoError(t, err)
	assert.Equal(t, "typescript", language)
	require.Len(t, forest, 1)

	class := forest[0]
	assert.Equal(t, "Dog", class.Name)
	assert.Equal(t, KindClass, class.Kind)
	require.Len(t, class.Children, 1)
	assert.Equal(t, "bark", class.Children[0].Name)
	assert.Equal(t, KindMethod, class.Children[0].Kind)

	var sawExtends, sawImplements bool
	for _, r := range class.References {
		if r.Kind == RefExtends && r.Name == "Animal" {
			sawExtends = true
		}
		if r.Kind == RefImplements && r.Name == "Named" {
			sawImplements = true
		}
	}
	assert.True(t, sawExtends, "expected an extends reference to Animal")
	assert.True(t, sawImplements, "expected an implements reference to Named")
}

func TestCurlyBraceExtractor_ArrowFunctionConst(t *testing.T) {
	t.Parallel()
	src := `const add = (a, b) => {
  return a + b;
};`
	e := NewCurlyBraceExtractor()
	_, forest, err := e.Extract([]byte(src), "add.js")
	require.NoError(t, err)
	require.Len(t, forest, 1)
	assert.Equal(t, "add", forest[0].Name)
	assert.Equal(t, KindFunction, forest[0].Kind)
}

func TestCurlyBraceExtractor_InvalidSourceDegradesGracefully(t *testing.T) {
	t.Parallel()
	e := NewCurlyBraceExtractor()
	_, _, err := e.Extract([]byte("{{{ not valid js ("), "broken.js")
	require.NoError(t, err)
}
