package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/robalobadob/bloglist/apps/go-server/internal/model"
)

var seed = []model.Post{
	{Title: "React patterns", Author: "Michael Chan", URL: "https://reactpatterns.com/", Likes: 7},
	{Title: "Go To Statement Considered Harmful", Author: "Edsger W. Dijkstra", URL: "http://www.u.arizona.edu/~rubinson/copyright_violations/Go_To_Considered_Harmful.html", Likes: 5},
	{Title: "Canonical string reduction", Author: "Edsger W. Dijkstra", URL: "http://www.cs.utexas.edu/~EWD/transcriptions/EWD08xx/EWD808.html", Likes: 12},
	{Title: "First class tests", Author: "Robert C. Martin", URL: "http://blog.cleancoder.com/uncle-bob/2017/05/05/TestDefinitions.htmll", Likes: 10},
	{Title: "TDD harms architecture", Author: "Robert C. Martin", URL: "http://blog.cleancoder.com/uncle-bob/2017/03/03/TDD-Harms-Architecture.html", Likes: 0},
	{Title: "Type wars", Author: "Robert C. Martin", URL: "http://blog.cleancoder.com/uncle-bob/2016/05/01/TypeWars.html", Likes: 2},
}

func TestTotalLikes(t *testing.T) {
	assert.Equal(t, 0, TotalLikes(nil))
	assert.Equal(t, 5, TotalLikes(seed[1:2]))
	assert.Equal(t, 36, TotalLikes(seed))
}

func TestFavoritePost(t *testing.T) {
	assert.Nil(t, FavoritePost(nil))
	assert.Equal(t, &Favorite{Title: "Canonical string reduction", Author: "Edsger W. Dijkstra", Likes: 12}, FavoritePost(seed))

	tied := []model.Post{{Title: "a", Likes: 3}, {Title: "b", Likes: 3}}
	assert.Equal(t, "a", FavoritePost(tied).Title)
}

func TestMostBlogs(t *testing.T) {
	assert.Nil(t, MostBlogs(nil))
	assert.Equal(t, &AuthorBlogs{Author: "Robert C. Martin", Blogs: 3}, MostBlogs(seed))

	tied := []model.Post{{Author: "x"}, {Author: "y"}}
	assert.Equal(t, "y", MostBlogs(tied).Author)
}

func TestMostLikes(t *testing.T) {
	assert.Nil(t, MostLikes(nil))
	assert.Equal(t, &AuthorLikes{Author: "Edsger W. Dijkstra", Likes: 17}, MostLikes(seed))
}

func TestSummarize(t *testing.T) {
	s := Summarize(seed)
	assert.Equal(t, 36, s.TotalLikes)
	assert.Equal(t, 12, s.Favorite.Likes)
	assert.Equal(t, 3, s.MostBlogs.Blogs)
	assert.Equal(t, 17, s.MostLikes.Likes)

	empty := Summarize(nil)
	assert.Zero(t, empty.TotalLikes)
	assert.Nil(t, empty.Favorite)
}
