package quiz

func seedQuestion(id, prompt string, options []string, correct string) Question {
	return Question{
		PublicQuestion: PublicQuestion{
			QuestionID: id,
			Question:   prompt,
			Options:    options,
		},
		CorrectAnswer: correct,
	}
}

// DefaultQuizzes returns the starter catalogue published on an empty database.
func DefaultQuizzes() []Definition {
	return []Definition{
		{
			QuizID:        "qz_python_basics",
			Title:         "Python Basics",
			SkillCategory: "Python",
			Difficulty:    DifficultyBeginner,
			Questions: []Question{
				seedQuestion("1", "What is the output of print(2 ** 3)?", []string{"6", "8", "9", "5"}, "8"),
				seedQuestion("2", "Which keyword defines a function in Python?", []string{"func", "define", "def", "function"}, "def"),
				seedQuestion("3", "What data type is [1, 2, 3]?", []string{"tuple", "list", "dict", "set"}, "list"),
				seedQuestion("4", "How do you comment in Python?", []string{"//", "/* */", "#", "--"}, "#"),
				seedQuestion("5", `What does len("hello") return?`, []string{"4", "5", "6", "error"}, "5"),
			},
		},
		{
			QuizID:        "qz_javascript_essentials",
			Title:         "JavaScript Essentials",
			SkillCategory: "JavaScript",
			Difficulty:    DifficultyBeginner,
			Questions: []Question{
				seedQuestion("1", "Which keyword declares a block-scoped variable?", []string{"var", "let", "const", "both let and const"}, "both let and const"),
				seedQuestion("2", "What does === check?", []string{"Value only", "Type only", "Value and type", "Reference"}, "Value and type"),
				seedQuestion("3", "Which method adds an element to the end of an array?", []string{"push()", "pop()", "shift()", "unshift()"}, "push()"),
				seedQuestion("4", "What is the output of typeof null?", []string{"null", "undefined", "object", "string"}, "object"),
				seedQuestion("5", "Arrow functions use which syntax?", []string{"->", "=>", "::", "->()"}, "=>"),
			},
		},
		{
			QuizID:        "qz_sql_fundamentals",
			Title:         "SQL Fundamentals",
			SkillCategory: "SQL",
			Difficulty:    DifficultyBeginner,
			Questions: []Question{
				seedQuestion("1", "Which SQL command retrieves data?", []string{"INSERT", "SELECT", "UPDATE", "DELETE"}, "SELECT"),
				seedQuestion("2", "What does WHERE clause do?", []string{"Sorts results", "Filters rows", "Groups rows", "Joins tables"}, "Filters rows"),
				seedQuestion("3", "Which JOIN returns all rows from both tables?", []string{"INNER JOIN", "LEFT JOIN", "RIGHT JOIN", "FULL OUTER JOIN"}, "FULL OUTER JOIN"),
				seedQuestion("4", "What does COUNT(*) return?", []string{"Sum of values", "Number of rows", "Average", "Maximum value"}, "Number of rows"),
				seedQuestion("5", "Which clause is used with aggregate functions?", []string{"WHERE", "HAVING", "ORDER BY", "GROUP BY"}, "GROUP BY"),
			},
		},
		{
			QuizID:        "qz_react_fundamentals",
			Title:         "React Fundamentals",
			SkillCategory: "React",
			Difficulty:    DifficultyBeginner,
			Questions: []Question{
				seedQuestion("1", "What hook is used for state in React?", []string{"useEffect", "useState", "useRef", "useContext"}, "useState"),
				seedQuestion("2", "What does JSX stand for?", []string{"JavaScript XML", "Java Syntax Extension", "JSON XML", "JavaScript Extension"}, "JavaScript XML"),
				seedQuestion("3", "Which hook runs after every render?", []string{"useState", "useCallback", "useEffect", "useMemo"}, "useEffect"),
				seedQuestion("4", "What is a React component?", []string{"A CSS class", "A JS function returning JSX", "An HTML tag", "A database model"}, "A JS function returning JSX"),
				seedQuestion("5", "How do you pass data to a child component?", []string{"State", "Props", "Context", "Refs"}, "Props"),
			},
		},
		{
			QuizID:        "qz_git_version_control",
			Title:         "Git & Version Control",
			SkillCategory: "Git",
			Difficulty:    DifficultyBeginner,
			Questions: []Question{
				seedQuestion("1", "Which command initializes a new Git repo?", []string{"git start", "git init", "git new", "git create"}, "git init"),
				seedQuestion("2", "What does git commit do?", []string{"Uploads to GitHub", "Saves a snapshot", "Merges branches", "Clones a repo"}, "Saves a snapshot"),
				seedQuestion("3", "Which command stages all changes?", []string{"git push .", "git add .", "git commit -a", "git stage all"}, "git add ."),
				seedQuestion("4", "What is a branch in Git?", []string{"A remote server", "A parallel version of code", "A commit message", "A file type"}, "A parallel version of code"),
				seedQuestion("5", "How do you push to remote?", []string{"git upload", "git send", "git push", "git deploy"}, "git push"),
			},
		},
	}
}
