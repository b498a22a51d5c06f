// apps/go-server/internal/stats/stats.go
//
// Aggregate statistics over a list of posts.
//   - TotalLikes : sum of likes.
//   - Favorite   : post with the most likes (first one wins ties).
//   - MostBlogs  : author with the most posts (later author wins ties).
//   - MostLikes  : author with the most likes in total (later author wins ties).
//
// "Later author" means the author whose first post appears later in the list.

package stats

import "github.com/robalobadob/bloglist/apps/go-server/internal/model"

// Favorite summarizes the most liked post.
type Favorite struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Likes  int    `json:"likes"`
}

// AuthorBlogs is an author with their post count.
type AuthorBlogs struct {
	Author string `json:"author"`
	Blogs  int    `json:"blogs"`
}

// AuthorLikes is an author with their like total.
type AuthorLikes struct {
	Author string `json:"author"`
	Likes  int    `json:"likes"`
}

// Summary bundles every statistic; nil fields mean "no posts".
type Summary struct {
	TotalLikes int          `json:"totalLikes"`
	Favorite   *Favorite    `json:"favorite"`
	MostBlogs  *AuthorBlogs `json:"mostBlogs"`
	MostLikes  *AuthorLikes `json:"mostLikes"`
}

// Summarize computes every statistic in one call.
func Summarize(posts []model.Post) Summary {
	return Summary{
		TotalLikes: TotalLikes(posts),
		Favorite:   FavoritePost(posts),
		MostBlogs:  MostBlogs(posts),
		MostLikes:  MostLikes(posts),
	}
}

// TotalLikes sums the likes of every post.
func TotalLikes(posts []model.Post) int {
	total := 0
	for _, p := range posts {
		total += p.Likes
	}
	return total
}

// FavoritePost returns the most liked post, or nil for no posts.
// On a tie the earliest post wins.
func FavoritePost(posts []model.Post) *Favorite {
	if len(posts) == 0 {
		return nil
	}
	best := posts[0]
	for _, p := range posts[1:] {
		if p.Likes > best.Likes {
			best = p
		}
	}
	return &Favorite{Title: best.Title, Author: best.Author, Likes: best.Likes}
}

// MostBlogs returns the author with the most posts, or nil for no posts.
// On a tie the author whose first post comes later wins.
func MostBlogs(posts []model.Post) *AuthorBlogs {
	author, n, ok := topAuthor(posts, func(model.Post) int { return 1 })
	if !ok {
		return nil
	}
	return &AuthorBlogs{Author: author, Blogs: n}
}

// MostLikes returns the author whose posts have the most likes in total,
// or nil for no posts. On a tie the author whose first post comes later wins.
func MostLikes(posts []model.Post) *AuthorLikes {
	author, n, ok := topAuthor(posts, func(p model.Post) int { return p.Likes })
	if !ok {
		return nil
	}
	return &AuthorLikes{Author: author, Likes: n}
}

// topAuthor sums weight per author and returns the maximum.
func topAuthor(posts []model.Post, weight func(model.Post) int) (string, int, bool) {
	if len(posts) == 0 {
		return "", 0, false
	}
	totals := make(map[string]int)
	var order []string
	for _, p := range posts {
		if _, seen := totals[p.Author]; !seen {
			order = append(order, p.Author)
		}
		totals[p.Author] += weight(p)
	}
	best := order[0]
	for _, a := range order[1:] {
		if totals[a] >= totals[best] {
			best = a
		}
	}
	return best, totals[best], true
}
