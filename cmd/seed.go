package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/portfolio-cms/apiserver/internal/store"
	"github.com/portfolio-cms/apiserver/types"
	"github.com/spf13/cobra"
)

func strPtr(s string) *string { return &s }

var seedProjects = []types.Project{
	{
		Title:        "Virtual Personal Stylist",
		Description:  "A JavaFX desktop application that helps users select outfits based on weather conditions and personal preferences. Features a modern UI with weather API integration.",
		Technologies: []string{"Java", "JavaFX", "Weather API", "CSS"},
		GithubURL:    strPtr("https://github.com/example/virtual-stylist"),
	},
	{
		Title:        "Blockchain Certificate Verifier",
		Description:  "A secure Java-based system for academic certificate authentication using blockchain technology. Ensures certificate integrity and prevents forgery.",
		Technologies: []string{"Java", "Blockchain", "Security", "Database"},
		GithubURL:    strPtr("https://github.com/example/blockchain-verifier"),
	},
	{
		Title:        "Attendance System",
		Description:  "An automated attendance tracking tool using Streamlit and QR codes. Features real-time tracking and reporting for educational institutions.",
		Technologies: []string{"Python", "Streamlit", "QR Codes", "Data Analysis"},
		GithubURL:    strPtr("https://github.com/example/attendance-system"),
	},
}

var seedPosts = []types.BlogPost{
	{
		Title:     "Building Secure APIs with JWT Authentication",
		Content:   "Learn how to implement JWT authentication in web applications with a refresh token strategy for enhanced security.",
		Excerpt:   "A comprehensive guide to implementing secure authentication in modern web applications using JWT tokens.",
		Tags:      []string{"Security", "JWT", "API"},
		Published: true,
	},
	{
		Title:     "React Best Practices",
		Content:   "Explore the latest React patterns and best practices for building scalable and maintainable frontend applications.",
		Excerpt:   "Stay updated with the latest React development practices and patterns for modern web development.",
		Tags:      []string{"React", "Frontend", "Best Practices", "JavaScript"},
		Published: true,
	},
	{
		Title:     "Database Design Principles",
		Content:   "Understanding normalization, indexing, and query optimization for efficient database design.",
		Excerpt:   "Learn the fundamental principles of database design and optimization techniques.",
		Tags:      []string{"Database", "PostgreSQL", "Performance", "Design"},
		Published: false,
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample projects and blog posts",
	Long: `Inserts sample projects and blog posts. Tables that already hold rows are
left alone, so the command can be rerun safely.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger := loadConfig()

		return withDB(cmd.Context(), cfg, func(ctx context.Context, conn *sql.DB) error {
			projects, err := seedProjectRows(ctx, store.NewProjectRepository(conn))
			if err != nil {
				return err
			}
			posts, err := seedPostRows(ctx, store.NewBlogPostRepository(conn))
			if err != nil {
				return err
			}
			logger.Info().Int("projects", projects).Int("posts", posts).Msg("sample data seeded")
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func seedProjectRows(ctx context.Context, repo *store.ProjectRepository) (int, error) {
	existing, err := repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list projects: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, project := range seedProjects {
		if _, err := repo.Create(ctx, project); err != nil {
			return 0, fmt.Errorf("seed project %q: %w", project.Title, err)
		}
	}
	return len(seedProjects), nil
}

func seedPostRows(ctx context.Context, repo *store.BlogPostRepository) (int, error) {
	existing, err := repo.List(ctx, types.BlogListFilter{})
	if err != nil {
		return 0, fmt.Errorf("list blog posts: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}
	for _, post := range seedPosts {
		if _, err := repo.Create(ctx, post); err != nil {
			return 0, fmt.Errorf("seed post %q: %w", post.Title, err)
		}
	}
	return len(seedPosts), nil
}
