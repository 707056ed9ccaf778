package roster

// Instructor teaches courses and counts the students graded in each.
type Instructor struct {
	cwid    string
	name    string
	dept    string
	counts  map[string]int
	courses []string // first-seen order
}

// NewInstructor returns an instructor with no enrollments.
func NewInstructor(cwid, name, dept string) *Instructor {
	return &Instructor{
		cwid:   cwid,
		name:   name,
		dept:   dept,
		counts: make(map[string]int),
	}
}

func (i *Instructor) Key() string  { return i.cwid }
func (i *Instructor) CWID() string { return i.cwid }
func (i *Instructor) Name() string { return i.name }
func (i *Instructor) Dept() string { return i.dept }

// RecordEnrollment counts one more student in course.
func (i *Instructor) RecordEnrollment(course string) {
	if _, ok := i.counts[course]; !ok {
		i.courses = append(i.courses, course)
	}
	i.counts[course]++
}

// Enrollment returns the student count for course.
func (i *Instructor) Enrollment(course string) int {
	return i.counts[course]
}

// InstructorSummary is one (instructor, course) report row.
type InstructorSummary struct {
	CWID     string `json:"cwid"`
	Name     string `json:"name"`
	Dept     string `json:"dept"`
	Course   string `json:"course"`
	Students int    `json:"students"`
}

// Summary returns one row per course taught, in the order courses were first seen.
// An instructor with no enrollments has no rows.
func (i *Instructor) Summary() []InstructorSummary {
	out := make([]InstructorSummary, 0, len(i.courses))
	for _, c := range i.courses {
		out = append(out, InstructorSummary{
			CWID:     i.cwid,
			Name:     i.name,
			Dept:     i.dept,
			Course:   c,
			Students: i.counts[c],
		})
	}
	return out
}
